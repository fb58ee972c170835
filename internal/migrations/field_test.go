package migrations

import (
	"errors"
	"strings"
	"testing"

	"github.com/quarry-dev/quarry/schema"
)

// extractModelsFrom parses one fixture and returns its models keyed by type name.
func extractModelsFrom(t *testing.T, src string) map[string]*Model {
	t.Helper()
	g := testGenerator(t)
	files := parseAll(t, g, map[string]string{"main.go": src})
	x := &extractor{fset: g.fset, modulePath: g.modulePath, appName: g.appName}
	models := x.extractModels(files)
	if err := x.errs.err(); err != nil {
		t.Fatalf("extraction failed: %v", err)
	}
	byName := make(map[string]*Model, len(models))
	for _, m := range models {
		byName[m.TypePath.Name] = m
	}
	return byName
}

func extractErr(t *testing.T, src string) error {
	t.Helper()
	g := testGenerator(t)
	files := parseAll(t, g, map[string]string{"main.go": src})
	x := &extractor{fset: g.fset, modulePath: g.modulePath, appName: g.appName}
	x.extractModels(files)
	err := x.errs.err()
	if err == nil {
		t.Fatal("expected an extraction error")
	}
	return err
}

func TestFieldAnalyserSamples(t *testing.T) {
	sample := extractModelsFrom(t, fixture(t, "field_samples.go"))["Sample"]
	if sample == nil {
		t.Fatal("Sample model not extracted")
	}
	if sample.TableName != "sample" {
		t.Errorf("table = %q, want sample", sample.TableName)
	}

	tests := []struct {
		field    string
		column   string
		ty       schema.ColumnType
		nullable bool
		unique   bool
		auto     bool
		pk       bool
	}{
		{field: "ID", column: "id", ty: schema.Int64, auto: true, pk: true},
		{field: "Note", column: "note", ty: schema.Text, nullable: true},
		{field: "Payload", column: "payload", ty: schema.Blob},
		{field: "Seen", column: "seen", ty: schema.ColDateTimeTz},
		{field: "Name", column: "display_name", ty: schema.String(100), unique: true},
		{field: "Flag", column: "flag", ty: schema.Bool},
		{field: "Stamp", column: "stamp", ty: schema.ColTimestamp},
	}
	if len(sample.Fields) != len(tests) {
		t.Fatalf("got %d fields, want %d", len(sample.Fields), len(tests))
	}
	for i, tt := range tests {
		f := sample.Fields[i]
		if f.FieldName != tt.field {
			t.Fatalf("fields[%d] = %s, want %s (order must be preserved)", i, f.FieldName, tt.field)
		}
		if f.ColumnName != tt.column {
			t.Errorf("%s column = %q, want %q", tt.field, f.ColumnName, tt.column)
		}
		if f.ColumnType != tt.ty {
			t.Errorf("%s type = %v, want %v", tt.field, f.ColumnType, tt.ty)
		}
		if f.Nullable != tt.nullable || f.Unique != tt.unique || f.AutoValue != tt.auto || f.PrimaryKey != tt.pk {
			t.Errorf("%s flags = %+v", tt.field, f)
		}
	}
}

func TestFieldAnalyserRejectsUnknownType(t *testing.T) {
	err := extractErr(t, `package main

import "github.com/quarry-dev/quarry/schema"

type custom struct{}

//quarry:model
type Bad struct {
	ID    schema.Auto[int64] `+"`model:\"primary_key\"`"+`
	Value custom
}
`)
	var ftErr *FieldTypeError
	if !errors.As(err, &ftErr) {
		t.Fatalf("err = %v, want FieldTypeError", err)
	}
	if ftErr.FieldName != "Value" {
		t.Errorf("FieldName = %q, want Value", ftErr.FieldName)
	}
}

func TestFieldAnalyserRequiresMaxLength(t *testing.T) {
	err := extractErr(t, `package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Bad struct {
	ID   schema.Auto[int64] `+"`model:\"primary_key\"`"+`
	Name schema.LimitedString
}
`)
	var ftErr *FieldTypeError
	if !errors.As(err, &ftErr) {
		t.Fatalf("err = %v, want FieldTypeError", err)
	}
	if !strings.Contains(ftErr.Reason, "max_length") {
		t.Errorf("reason = %q, want max_length requirement", ftErr.Reason)
	}
}

func TestFieldAnalyserRejectsBadMaxLength(t *testing.T) {
	err := extractErr(t, `package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Bad struct {
	ID   schema.Auto[int64] `+"`model:\"primary_key\"`"+`
	Name schema.LimitedString `+"`model:\"max_length=plenty\"`"+`
}
`)
	var ftErr *FieldTypeError
	if !errors.As(err, &ftErr) {
		t.Fatalf("err = %v, want FieldTypeError", err)
	}
	if !strings.Contains(ftErr.Reason, "positive integer") {
		t.Errorf("reason = %q, want positive integer requirement", ftErr.Reason)
	}
}

func TestFieldAnalyserRejectsMaxLengthOnOtherTypes(t *testing.T) {
	err := extractErr(t, `package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Bad struct {
	ID   schema.Auto[int64] `+"`model:\"primary_key\"`"+`
	Body string `+"`model:\"max_length=64\"`"+`
}
`)
	var ftErr *FieldTypeError
	if !errors.As(err, &ftErr) {
		t.Fatalf("err = %v, want FieldTypeError", err)
	}
	if !strings.Contains(ftErr.Reason, "LimitedString") {
		t.Errorf("reason = %q, want LimitedString restriction", ftErr.Reason)
	}
}

func TestFieldAnalyserRejectsNonIntegerAuto(t *testing.T) {
	err := extractErr(t, `package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Bad struct {
	ID schema.Auto[string] `+"`model:\"primary_key\"`"+`
}
`)
	var ftErr *FieldTypeError
	if !errors.As(err, &ftErr) {
		t.Fatalf("err = %v, want FieldTypeError", err)
	}
	if !strings.Contains(ftErr.Reason, "integer") {
		t.Errorf("reason = %q, want integer requirement", ftErr.Reason)
	}
}

func TestFieldAnalyserReferentialActions(t *testing.T) {
	models := extractModelsFrom(t, `package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model
type Parent struct {
	ID schema.Auto[int32] `+"`model:\"primary_key\"`"+`
}

//quarry:model
type Child struct {
	ID     schema.Auto[int32] `+"`model:\"primary_key\"`"+`
	Parent schema.ForeignKey[Parent] `+"`model:\"on_delete=cascade,on_update=no_action\"`"+`
}
`)
	f := models["Child"].fieldByName("Parent")
	if f == nil || f.ForeignKey == nil {
		t.Fatal("Parent foreign key not extracted")
	}
	if f.OnDelete != schema.Cascade {
		t.Errorf("OnDelete = %v, want cascade", f.OnDelete)
	}
	if f.OnUpdate != schema.NoAction {
		t.Errorf("OnUpdate = %v, want no_action", f.OnUpdate)
	}
}

func TestExtractorRejectsGenericModel(t *testing.T) {
	err := extractErr(t, `package main

//quarry:model
type Box[T any] struct {
	ID T
}
`)
	var umErr *UnsupportedModelError
	if !errors.As(err, &umErr) {
		t.Fatalf("err = %v, want UnsupportedModelError", err)
	}
}

func TestExtractorRejectsNonStruct(t *testing.T) {
	err := extractErr(t, `package main

//quarry:model
type Level int
`)
	var umErr *UnsupportedModelError
	if !errors.As(err, &umErr) {
		t.Fatalf("err = %v, want UnsupportedModelError", err)
	}
}

func TestExtractorRejectsEmbeddedFields(t *testing.T) {
	err := extractErr(t, `package main

import "github.com/quarry-dev/quarry/schema"

type base struct{}

//quarry:model
type Bad struct {
	base
	ID schema.Auto[int64] `+"`model:\"primary_key\"`"+`
}
`)
	var umErr *UnsupportedModelError
	if !errors.As(err, &umErr) {
		t.Fatalf("err = %v, want UnsupportedModelError", err)
	}
}

func TestExtractorIgnoresInternalModels(t *testing.T) {
	models := extractModelsFrom(t, `package main

//quarry:model model_type=internal
type Scratch struct {
	Value int
}
`)
	if len(models) != 0 {
		t.Errorf("internal models must be ignored, got %v", models)
	}
}

func TestExtractorRequiresSnapshotUnderscore(t *testing.T) {
	err := extractErr(t, `package main

import "github.com/quarry-dev/quarry/schema"

//quarry:model model_type=migration
type Parent struct {
	ID schema.Auto[int32] `+"`model:\"primary_key\"`"+`
}
`)
	var umErr *UnsupportedModelError
	if !errors.As(err, &umErr) {
		t.Fatalf("err = %v, want UnsupportedModelError", err)
	}
	if !strings.Contains(umErr.Reason, "underscore") {
		t.Errorf("reason = %q, want underscore rule", umErr.Reason)
	}
}

func TestExtractorAccumulatesErrors(t *testing.T) {
	err := extractErr(t, `package main

//quarry:model
type First int

//quarry:model
type Second int
`)
	msg := err.Error()
	if !strings.Contains(msg, "First") || !strings.Contains(msg, "Second") {
		t.Errorf("err = %q, want both problems reported", msg)
	}
}
