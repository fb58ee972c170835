package migrations

import (
	"fmt"
	"go/format"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/quarry-dev/quarry/schema"
)

// gofmt normalises rendered source. The templates already produce valid Go;
// formatting only settles alignment, so a failure falls back to the raw
// rendering instead of aborting the run.
func gofmt(src string) string {
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return src
	}
	return string(formatted)
}

// MigrationAsSource is a produced migration handed back to the caller as a
// (name, source text) pair.
type MigrationAsSource struct {
	Name    string
	Content string
}

// generatedMigration is the in-memory form of the migration about to be
// serialised.
type generatedMigration struct {
	app          string
	name         string
	dependencies []dependency
	operations   []operation
}

var migrationTemplate = template.Must(template.New("migration").Parse(
	`// Code generated by quarry migration make; DO NOT EDIT.

package {{.Package}}

{{.ImportBlock}}

const (
	AppName       = {{.AppName}}
	MigrationName = {{.MigrationName}}
)

{{.Dependencies}}

{{.Operations}}

// Migration is the entry registered in the app's migrations registry.
var Migration = schema.Migration{
	App:          AppName,
	Name:         MigrationName,
	Dependencies: Dependencies,
	Operations:   Operations,
}
{{range .Snapshots}}
{{.}}
{{end}}`))

var registryTemplate = template.Must(template.New("registry").Parse(
	`// Code generated by quarry migration make; DO NOT EDIT.

// Package migrations registers this app's schema migrations.
package migrations

{{if .Entries}}import (
	"github.com/quarry-dev/quarry/schema"

{{range .Entries}}	{{.Alias}} "{{.Path}}"
{{end}})

// All lists this app's migrations in apply order.
var All = []schema.Migration{
{{range .Entries}}	{{.Alias}}.Migration,
{{end}}}
{{else}}import "github.com/quarry-dev/quarry/schema"

// All lists this app's migrations in apply order.
var All []schema.Migration
{{end}}`))

// serialiser renders one migration to source text.
type serialiser struct {
	st         *projectState
	modulePath string
	m          *generatedMigration
}

func (s *serialiser) render() (string, error) {
	snapshots, extraImports := s.renderSnapshots()

	importBlock := "import " + strconv.Quote(schemaPkgPath)
	if len(extraImports) > 0 {
		var b strings.Builder
		b.WriteString("import (\n")
		b.WriteString("\t" + strconv.Quote(schemaPkgPath) + "\n\n")
		for _, imp := range extraImports {
			b.WriteString("\t" + imp + "\n")
		}
		b.WriteString(")")
		importBlock = b.String()
	}

	var buf strings.Builder
	err := migrationTemplate.Execute(&buf, struct {
		Package       string
		ImportBlock   string
		AppName       string
		MigrationName string
		Dependencies  string
		Operations    string
		Snapshots     []string
	}{
		Package:       s.m.name,
		ImportBlock:   importBlock,
		AppName:       strconv.Quote(s.m.app),
		MigrationName: strconv.Quote(s.m.name),
		Dependencies:  s.renderDependencies(),
		Operations:    s.renderOperations(),
		Snapshots:     snapshots,
	})
	if err != nil {
		return "", fmt.Errorf("rendering migration %s: %w", s.m.name, err)
	}
	return gofmt(buf.String()), nil
}

func (s *serialiser) renderDependencies() string {
	if len(s.m.dependencies) == 0 {
		return "// Dependencies is empty: this is the first migration of the app and it\n" +
			"// references no external models.\nvar Dependencies []schema.Dependency"
	}
	var b strings.Builder
	b.WriteString("// Dependencies must be applied before this migration runs.\n")
	b.WriteString("var Dependencies = []schema.Dependency{\n")
	for _, d := range s.m.dependencies {
		switch d.kind {
		case depMigration:
			fmt.Fprintf(&b, "\tschema.MigrationDependency(%s, %s),\n",
				strconv.Quote(d.app), strconv.Quote(d.migration))
		case depModel:
			fmt.Fprintf(&b, "\tschema.ModelDependency(%s),\n", strconv.Quote(d.model.String()))
		}
	}
	b.WriteString("}")
	return b.String()
}

func (s *serialiser) renderOperations() string {
	var b strings.Builder
	b.WriteString("// Operations transform the previous schema state into this migration's\n// state, in order.\n")
	b.WriteString("var Operations = []schema.Operation{\n")
	for _, op := range s.m.operations {
		table := op.model.TableName
		switch op.kind {
		case opCreateModel:
			fmt.Fprintf(&b, "\tschema.CreateModel(%s,\n", strconv.Quote(table))
			for i := range op.fields {
				fmt.Fprintf(&b, "\t\t%s,\n", s.renderFieldValue(&op.fields[i]))
			}
			b.WriteString("\t),\n")
		case opRemoveModel:
			fmt.Fprintf(&b, "\tschema.RemoveModel(%s,\n", strconv.Quote(table))
			for i := range op.fields {
				fmt.Fprintf(&b, "\t\t%s,\n", s.renderFieldValue(&op.fields[i]))
			}
			b.WriteString("\t),\n")
		case opAddField:
			fmt.Fprintf(&b, "\tschema.AddField(%s, %s),\n", strconv.Quote(table), s.renderFieldValue(op.field))
		case opRemoveField:
			fmt.Fprintf(&b, "\tschema.RemoveField(%s, %s),\n", strconv.Quote(table), s.renderFieldValue(op.field))
		}
	}
	b.WriteString("}")
	return b.String()
}

// renderFieldValue renders a schema.Field composite literal with only the
// meaningful attributes set.
func (s *serialiser) renderFieldValue(f *Field) string {
	parts := []string{
		"ColumnName: " + strconv.Quote(f.ColumnName),
		"Type: " + renderColumnType(f.ColumnType),
	}
	if f.PrimaryKey {
		parts = append(parts, "PrimaryKey: true")
	}
	if f.AutoValue {
		parts = append(parts, "AutoValue: true")
	}
	if f.Nullable {
		parts = append(parts, "Nullable: true")
	}
	if f.Unique {
		parts = append(parts, "Unique: true")
	}
	if f.ForeignKey != nil {
		if ref := s.renderReference(f); ref != "" {
			parts = append(parts, ref)
		}
	}
	return "schema.Field{" + strings.Join(parts, ", ") + "}"
}

func (s *serialiser) renderReference(f *Field) string {
	target, ok := s.st.target[*f.ForeignKey]
	if !ok {
		target, ok = s.st.previous[*f.ForeignKey]
	}
	if !ok {
		return ""
	}
	pk := target.primaryKey()
	if pk == nil {
		return ""
	}
	return fmt.Sprintf("Reference: &schema.Reference{Table: %s, Column: %s, OnDelete: %s, OnUpdate: %s}",
		strconv.Quote(target.TableName), strconv.Quote(pk.ColumnName),
		renderAction(f.OnDelete), renderAction(f.OnUpdate))
}

// renderSnapshots renders one migration-kind struct per touched model and
// returns the extra imports the snapshot types need.
func (s *serialiser) renderSnapshots() (blocks []string, imports []string) {
	type touched struct {
		model   *Model
		removed bool
	}
	byPath := make(map[TypePath]touched)
	for _, op := range s.m.operations {
		path := op.model.TypePath
		if op.kind == opRemoveModel {
			byPath[path] = touched{model: op.model, removed: true}
			continue
		}
		if t, ok := s.st.target[path]; ok {
			byPath[path] = touched{model: t}
		}
	}

	paths := make([]TypePath, 0, len(byPath))
	for p := range byPath {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })

	importSet := make(map[string]string) // path -> alias
	for _, p := range paths {
		t := byPath[p]
		var b strings.Builder
		if t.removed {
			b.WriteString("//quarry:model model_type=migration removed\n")
			fmt.Fprintf(&b, "type _%s struct{}", p.Name)
			blocks = append(blocks, b.String())
			continue
		}
		b.WriteString("//quarry:model model_type=migration\n")
		fmt.Fprintf(&b, "type _%s struct {\n", p.Name)
		for i := range t.model.Fields {
			f := &t.model.Fields[i]
			fmt.Fprintf(&b, "\t%s %s%s\n", f.FieldName, s.renderFieldType(f, importSet), renderTag(f))
		}
		b.WriteString("}")
		blocks = append(blocks, b.String())
	}

	importPaths := make([]string, 0, len(importSet))
	for path := range importSet {
		importPaths = append(importPaths, path)
	}
	sort.Strings(importPaths)
	for _, path := range importPaths {
		alias := importSet[path]
		if alias == defaultImportName(path) {
			imports = append(imports, strconv.Quote(path))
		} else {
			imports = append(imports, alias+" "+strconv.Quote(path))
		}
	}
	return blocks, imports
}

// renderFieldType reconstructs the declared type of a snapshot field in
// canonical form, registering any imports the expression needs.
func (s *serialiser) renderFieldType(f *Field, importSet map[string]string) string {
	var core string
	switch {
	case f.ForeignKey != nil:
		core = "schema.ForeignKey[" + s.renderTypeRef(*f.ForeignKey, importSet) + "]"
	case f.ColumnType.Kind == schema.KindString:
		// The bound travels in the max_length tag.
		core = "schema.LimitedString"
	default:
		core = renderLeafType(f.ColumnType, importSet)
	}
	if f.AutoValue {
		core = "schema.Auto[" + core + "]"
	}
	if f.Nullable {
		core = "*" + core
	}
	return core
}

// renderTypeRef renders a reference to a model type from within the
// migration package: app-root models by bare identifier, anything else
// through an import.
func (s *serialiser) renderTypeRef(path TypePath, importSet map[string]string) string {
	if path.Pkg == s.modulePath {
		return path.Name
	}
	alias, ok := importSet[path.Pkg]
	if !ok {
		alias = defaultImportName(path.Pkg)
		used := make(map[string]bool, len(importSet))
		for _, a := range importSet {
			used[a] = true
		}
		for i := 2; used[alias]; i++ {
			alias = fmt.Sprintf("%s%d", defaultImportName(path.Pkg), i)
		}
		importSet[path.Pkg] = alias
	}
	return alias + "." + path.Name
}

func renderLeafType(t schema.ColumnType, importSet map[string]string) string {
	switch t.Kind {
	case schema.KindBool:
		return "bool"
	case schema.KindI8:
		return "int8"
	case schema.KindI16:
		return "int16"
	case schema.KindI32:
		return "int32"
	case schema.KindI64:
		return "int64"
	case schema.KindU8:
		return "uint8"
	case schema.KindU16:
		return "uint16"
	case schema.KindU32:
		return "uint32"
	case schema.KindU64:
		return "uint64"
	case schema.KindF32:
		return "float32"
	case schema.KindF64:
		return "float64"
	case schema.KindText:
		return "string"
	case schema.KindBlob:
		return "[]byte"
	case schema.KindDate:
		return "schema.Date"
	case schema.KindTime:
		return "schema.Time"
	case schema.KindDateTime:
		return "schema.DateTime"
	case schema.KindDateTimeTz:
		importSet["time"] = "time"
		return "time.Time"
	case schema.KindTimestamp:
		return "schema.Timestamp"
	case schema.KindTimestampTz:
		return "schema.TimestampTz"
	}
	return "invalid"
}

func renderColumnType(t schema.ColumnType) string {
	switch t.Kind {
	case schema.KindBool:
		return "schema.Bool"
	case schema.KindI8:
		return "schema.Int8"
	case schema.KindI16:
		return "schema.Int16"
	case schema.KindI32:
		return "schema.Int32"
	case schema.KindI64:
		return "schema.Int64"
	case schema.KindU8:
		return "schema.Uint8"
	case schema.KindU16:
		return "schema.Uint16"
	case schema.KindU32:
		return "schema.Uint32"
	case schema.KindU64:
		return "schema.Uint64"
	case schema.KindF32:
		return "schema.Float32"
	case schema.KindF64:
		return "schema.Float64"
	case schema.KindDate:
		return "schema.ColDate"
	case schema.KindTime:
		return "schema.ColTime"
	case schema.KindDateTime:
		return "schema.ColDateTime"
	case schema.KindDateTimeTz:
		return "schema.ColDateTimeTz"
	case schema.KindTimestamp:
		return "schema.ColTimestamp"
	case schema.KindTimestampTz:
		return "schema.ColTimestampTz"
	case schema.KindText:
		return "schema.Text"
	case schema.KindBlob:
		return "schema.Blob"
	case schema.KindString:
		return fmt.Sprintf("schema.String(%d)", t.Size)
	}
	return "schema.ColumnType{}"
}

func renderAction(a schema.ReferentialAction) string {
	switch a {
	case schema.NoAction:
		return "schema.NoAction"
	case schema.Restrict:
		return "schema.Restrict"
	case schema.Cascade:
		return "schema.Cascade"
	case schema.SetNone:
		return "schema.SetNone"
	}
	return "schema.NoAction"
}

// renderTag renders the model struct tag of a snapshot field, or "" when
// every attribute is at its default.
func renderTag(f *Field) string {
	var parts []string
	if f.PrimaryKey {
		parts = append(parts, "primary_key")
	}
	if f.Unique {
		parts = append(parts, "unique")
	}
	if f.ForeignKey == nil && f.ColumnType.Kind == schema.KindString {
		parts = append(parts, fmt.Sprintf("max_length=%d", f.ColumnType.Size))
	}
	if f.ColumnName != toSnakeCase(f.FieldName) {
		parts = append(parts, "column="+f.ColumnName)
	}
	if f.ForeignKey != nil {
		if f.OnDelete != schema.Restrict {
			parts = append(parts, "on_delete="+f.OnDelete.String())
		}
		if f.OnUpdate != schema.Cascade {
			parts = append(parts, "on_update="+f.OnUpdate.String())
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " `model:\"" + strings.Join(parts, ",") + "\"`"
}

// defaultImportName is the package name an import path gets without an
// explicit alias.
func defaultImportName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// registryEntry is one line of the migrations registry file.
type registryEntry struct {
	Alias string
	Path  string
}

// RegistrySource renders the migrations registry for the given app, one
// entry per migration, in ascending name order. The scaffolder uses it with
// an empty name list.
func RegistrySource(migrationsPkgPath string, names []string) (string, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	entries := make([]registryEntry, 0, len(sorted))
	for _, name := range sorted {
		entries = append(entries, registryEntry{
			Alias: strings.ReplaceAll(name, "_", ""),
			Path:  migrationsPkgPath + "/" + name,
		})
	}
	var buf strings.Builder
	err := registryTemplate.Execute(&buf, struct{ Entries []registryEntry }{entries})
	if err != nil {
		return "", fmt.Errorf("rendering migrations registry: %w", err)
	}
	return gofmt(buf.String()), nil
}
