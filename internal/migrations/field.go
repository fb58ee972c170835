package migrations

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"reflect"
	"strconv"
	"strings"

	"github.com/quarry-dev/quarry/schema"
)

// fieldAnalyser decodes one struct field declaration into a Field record:
// wrapper detection on the type expression, primitive mapping, and the model
// struct tag.
type fieldAnalyser struct {
	fset  *token.FileSet
	scope *fileScope
	model *Model
}

func (a *fieldAnalyser) analyse(name string, field *ast.Field) (Field, error) {
	pos := a.fset.Position(field.Pos())
	f := Field{
		FieldName:  name,
		ColumnName: toSnakeCase(name),
		OnDelete:   schema.Restrict,
		OnUpdate:   schema.Cascade,
		ResolvedTy: exprText(field.Type),
		Pos:        pos,
	}

	tag, err := a.applyTag(&f, field)
	if err != nil {
		return f, err
	}
	if err := a.decodeType(&f, field.Type, tag); err != nil {
		return f, err
	}

	if tag.actions && f.ForeignKey == nil {
		return f, a.typeErr(&f, "on_delete/on_update only apply to foreign-key fields")
	}
	if tag.hasMaxLength && f.ColumnType.Kind != schema.KindString {
		return f, a.typeErr(&f, "max_length only applies to LimitedString fields")
	}
	if f.AutoValue {
		if !f.PrimaryKey {
			return f, a.typeErr(&f, "auto fields must be the primary key")
		}
		if !f.ColumnType.IsInteger() {
			return f, a.typeErr(&f, "auto fields must have an integer type")
		}
	}
	return f, nil
}

// decodeType unwraps the declared type expression in priority order
// (pointer, Auto, ForeignKey) and maps the remaining leaf to a column type.
func (a *fieldAnalyser) decodeType(f *Field, expr ast.Expr, tag tagInfo) error {
	if star, ok := expr.(*ast.StarExpr); ok {
		f.Nullable = true
		expr = star.X
	}

	if idx, ok := expr.(*ast.IndexExpr); ok {
		base, err := a.scope.resolveType(idx.X)
		if err != nil || base.Pkg != schemaPkgPath {
			return a.typeErr(f, "unknown generic type "+exprText(idx.X))
		}
		switch base.Name {
		case "Auto":
			f.AutoValue = true
			return a.decodeLeaf(f, idx.Index, tag)
		case "ForeignKey":
			target, err := a.scope.resolveType(idx.Index)
			if err != nil {
				return a.typeErr(f, err.Error())
			}
			if a.model.Kind == KindMigration {
				// Targets written in snapshot files resolve relative to the
				// migration package; attribute them the same way as the
				// snapshots themselves.
				target.Pkg = stripMigrationSegments(target.Pkg)
				target.Name = strings.TrimPrefix(target.Name, "_")
			}
			f.ForeignKey = &target
			// The column type is the target's primary-key type, filled in
			// once both states are built.
			return nil
		default:
			return a.typeErr(f, "unknown schema type "+base.Name)
		}
	}

	return a.decodeLeaf(f, expr, tag)
}

// decodeLeaf maps a leaf type expression to a column type.
func (a *fieldAnalyser) decodeLeaf(f *Field, expr ast.Expr, tag tagInfo) error {
	switch t := expr.(type) {
	case *ast.Ident:
		if ct, ok := primitiveColumns[t.Name]; ok {
			f.ColumnType = ct
			return nil
		}
	case *ast.ArrayType:
		if t.Len == nil {
			if elt, ok := t.Elt.(*ast.Ident); ok && (elt.Name == "byte" || elt.Name == "uint8") {
				f.ColumnType = schema.Blob
				return nil
			}
		}
	case *ast.SelectorExpr:
		path, err := a.scope.resolveType(t)
		if err != nil {
			return a.typeErr(f, err.Error())
		}
		if path == (TypePath{Pkg: schemaPkgPath, Name: "LimitedString"}) {
			if !tag.hasMaxLength {
				return a.typeErr(f, "LimitedString fields need a max_length tag")
			}
			f.ColumnType = schema.String(tag.maxLength)
			return nil
		}
		if ct, ok := namedColumns[path]; ok {
			f.ColumnType = ct
			return nil
		}
	}
	return a.typeErr(f, "cannot map type "+exprText(expr)+" to a column type")
}

// tagInfo carries the tag keys that interact with type decoding: the
// max_length bound of LimitedString fields and whether referential-action
// keys were present, so they can be rejected on fields they do not apply to.
type tagInfo struct {
	actions      bool
	maxLength    int
	hasMaxLength bool
}

// applyTag decodes the model struct tag into field flags.
func (a *fieldAnalyser) applyTag(f *Field, field *ast.Field) (tagInfo, error) {
	var info tagInfo
	if field.Tag == nil {
		return info, nil
	}
	raw, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return info, a.typeErr(f, "malformed struct tag")
	}
	tag, ok := reflect.StructTag(raw).Lookup("model")
	if !ok {
		return info, nil
	}
	for _, part := range strings.Split(tag, ",") {
		key, value, hasValue := strings.Cut(part, "=")
		switch key {
		case "primary_key":
			f.PrimaryKey = true
		case "unique":
			f.Unique = true
		case "column":
			if !hasValue || value == "" {
				return info, a.typeErr(f, "column override needs a name")
			}
			f.ColumnName = value
		case "max_length":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return info, a.typeErr(f, "max_length needs a positive integer, got "+strconv.Quote(value))
			}
			info.maxLength = n
			info.hasMaxLength = true
		case "on_delete":
			action, err := parseAction(value)
			if err != nil {
				return info, a.typeErr(f, err.Error())
			}
			f.OnDelete = action
			info.actions = true
		case "on_update":
			action, err := parseAction(value)
			if err != nil {
				return info, a.typeErr(f, err.Error())
			}
			f.OnUpdate = action
			info.actions = true
		default:
			return info, a.typeErr(f, "unknown model tag "+strconv.Quote(part))
		}
	}
	return info, nil
}

func (a *fieldAnalyser) typeErr(f *Field, reason string) error {
	return &FieldTypeError{Pos: f.Pos, TypeName: a.model.TypePath.Name, FieldName: f.FieldName, Reason: reason}
}

func parseAction(s string) (schema.ReferentialAction, error) {
	switch s {
	case "no_action":
		return schema.NoAction, nil
	case "restrict":
		return schema.Restrict, nil
	case "cascade":
		return schema.Cascade, nil
	case "set_none":
		return schema.SetNone, nil
	}
	return schema.NoAction, fmt.Errorf("unknown referential action %q", s)
}

var primitiveColumns = map[string]schema.ColumnType{
	"bool":    schema.Bool,
	"int8":    schema.Int8,
	"int16":   schema.Int16,
	"int32":   schema.Int32,
	"int64":   schema.Int64,
	"int":     schema.Int64,
	"uint8":   schema.Uint8,
	"byte":    schema.Uint8,
	"uint16":  schema.Uint16,
	"uint32":  schema.Uint32,
	"uint64":  schema.Uint64,
	"uint":    schema.Uint64,
	"float32": schema.Float32,
	"float64": schema.Float64,
	"string":  schema.Text,
}

var namedColumns = map[TypePath]schema.ColumnType{
	{Pkg: "time", Name: "Time"}:               schema.ColDateTimeTz,
	{Pkg: schemaPkgPath, Name: "Date"}:        schema.ColDate,
	{Pkg: schemaPkgPath, Name: "Time"}:        schema.ColTime,
	{Pkg: schemaPkgPath, Name: "DateTime"}:    schema.ColDateTime,
	{Pkg: schemaPkgPath, Name: "Timestamp"}:   schema.ColTimestamp,
	{Pkg: schemaPkgPath, Name: "TimestampTz"}: schema.ColTimestampTz,
}

// exprText renders a type expression exactly as written, for keeping the
// resolved type of a field around when emitting snapshots.
func exprText(expr ast.Expr) string {
	var buf bytes.Buffer
	if err := printer.Fprint(&buf, token.NewFileSet(), expr); err != nil {
		return ""
	}
	return buf.String()
}
