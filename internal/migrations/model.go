// Package migrations implements the quarry migration generator: it parses a
// project's source files, extracts annotated model declarations, diffs them
// against the snapshots recorded in previously generated migration files, and
// emits a new migration describing the schema delta.
package migrations

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/quarry-dev/quarry/schema"
)

// TypePath is the canonical, fully-qualified name of a type: the package
// import path plus the type name. It is the identity key of the model
// repository; two references to the same model from different files resolve
// to equal TypePaths.
type TypePath struct {
	Pkg  string
	Name string
}

func (p TypePath) String() string {
	if p.Pkg == "" {
		return p.Name
	}
	return p.Pkg + "." + p.Name
}

// IsZero reports whether the path is unset.
func (p TypePath) IsZero() bool {
	return p.Pkg == "" && p.Name == ""
}

// Less orders type paths lexicographically by their canonical string form.
func (p TypePath) Less(other TypePath) bool {
	return p.String() < other.String()
}

// Field is one column of a model as extracted from source.
type Field struct {
	FieldName  string
	ColumnName string
	ColumnType schema.ColumnType
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	AutoValue  bool
	// ForeignKey is the referenced model type when the field's declared type
	// is the foreign-key wrapper. The column type of such a field is filled
	// in from the target's primary key after all models are known.
	ForeignKey *TypePath
	OnDelete   schema.ReferentialAction
	OnUpdate   schema.ReferentialAction
	// ResolvedTy is the type expression as written in source, kept for
	// emitting snapshots.
	ResolvedTy string
	Pos        token.Position
}

func (f *Field) equal(other *Field) bool {
	if f.FieldName != other.FieldName ||
		f.ColumnName != other.ColumnName ||
		f.ColumnType != other.ColumnType ||
		f.Nullable != other.Nullable ||
		f.PrimaryKey != other.PrimaryKey ||
		f.Unique != other.Unique ||
		f.AutoValue != other.AutoValue ||
		f.OnDelete != other.OnDelete ||
		f.OnUpdate != other.OnUpdate {
		return false
	}
	if (f.ForeignKey == nil) != (other.ForeignKey == nil) {
		return false
	}
	if f.ForeignKey != nil && *f.ForeignKey != *other.ForeignKey {
		return false
	}
	return true
}

// ModelKind classifies a model declaration.
type ModelKind int

const (
	// KindApplication is a real model declared by application code.
	KindApplication ModelKind = iota
	// KindMigration is a snapshot model declared in a migration file.
	KindMigration
	// KindInternal is ignored by the generator.
	KindInternal
)

func (k ModelKind) String() string {
	switch k {
	case KindApplication:
		return "application"
	case KindMigration:
		return "migration"
	case KindInternal:
		return "internal"
	}
	return "invalid"
}

// Model is one table snapshot extracted from source.
type Model struct {
	TypePath  TypePath
	AppName   string
	TableName string
	Fields    []Field
	Kind      ModelKind
	// Removed marks a migration-kind tombstone: the model was dropped by the
	// migration that declares this snapshot.
	Removed bool
	// MigrationName is set for migration-kind models: the migration whose
	// file declares the snapshot.
	MigrationName string
	File          string
	Pos           token.Position
}

// primaryKey returns the model's primary-key field.
func (m *Model) primaryKey() *Field {
	for i := range m.Fields {
		if m.Fields[i].PrimaryKey {
			return &m.Fields[i]
		}
	}
	return nil
}

func (m *Model) fieldByName(name string) *Field {
	for i := range m.Fields {
		if m.Fields[i].FieldName == name {
			return &m.Fields[i]
		}
	}
	return nil
}

// toSnakeCase converts a Go identifier to snake_case, keeping acronym runs
// together: "ParentID" becomes "parent_id", "HTTPServer" becomes
// "http_server".
func toSnakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
