package migrations

import (
	"go/ast"
	"go/token"
	"strings"
)

// directivePrefix marks a struct declaration as a quarry model.
const directivePrefix = "//quarry:model"

// modelDirective is the decoded form of a //quarry:model comment.
type modelDirective struct {
	kind    ModelKind
	removed bool
}

// parseDirective decodes the arguments of a //quarry:model comment. It
// returns ok=false when the comment group carries no model directive.
func parseDirective(doc *ast.CommentGroup) (modelDirective, bool, error) {
	if doc == nil {
		return modelDirective{}, false, nil
	}
	for _, c := range doc.List {
		text := c.Text
		if text != directivePrefix && !strings.HasPrefix(text, directivePrefix+" ") {
			continue
		}
		d := modelDirective{kind: KindApplication}
		for _, arg := range strings.Fields(strings.TrimPrefix(text, directivePrefix)) {
			key, value, _ := strings.Cut(arg, "=")
			value = strings.Trim(value, `"`)
			switch key {
			case "model_type":
				switch value {
				case "application":
					d.kind = KindApplication
				case "migration":
					d.kind = KindMigration
				case "internal":
					d.kind = KindInternal
				default:
					return d, true, errUnknownArg{arg: arg}
				}
			case "removed":
				d.removed = true
			default:
				return d, true, errUnknownArg{arg: arg}
			}
		}
		return d, true, nil
	}
	return modelDirective{}, false, nil
}

type errUnknownArg struct{ arg string }

func (e errUnknownArg) Error() string {
	return "unknown model directive argument " + e.arg
}

// extractor walks parsed files and builds model records.
type extractor struct {
	fset       *token.FileSet
	modulePath string
	appName    string
	errs       errorList
}

// extractModels visits every type declaration in every file and returns one
// Model per struct carrying the model directive. Structural problems are
// accumulated across all files before the run aborts.
func (x *extractor) extractModels(files []SourceFile) []*Model {
	var models []*Model
	for _, f := range files {
		scope := newFileScope(x.modulePath, f)
		for _, decl := range f.File.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				doc := ts.Doc
				if doc == nil {
					doc = gen.Doc
				}
				d, ok, err := parseDirective(doc)
				if !ok {
					continue
				}
				pos := x.fset.Position(ts.Pos())
				if err != nil {
					x.errs.add(&UnsupportedModelError{Pos: pos, TypeName: ts.Name.Name, Reason: err.Error()})
					continue
				}
				if d.kind == KindInternal {
					continue
				}
				if m := x.extractModel(scope, f, ts, d); m != nil {
					models = append(models, m)
				}
			}
		}
	}
	return models
}

func (x *extractor) extractModel(scope *fileScope, f SourceFile, ts *ast.TypeSpec, d modelDirective) *Model {
	pos := x.fset.Position(ts.Pos())
	name := ts.Name.Name

	if ts.TypeParams != nil {
		x.errs.add(&UnsupportedModelError{Pos: pos, TypeName: name, Reason: "generic models are not supported"})
		return nil
	}
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		x.errs.add(&UnsupportedModelError{Pos: pos, TypeName: name, Reason: "only struct types can be models"})
		return nil
	}

	typePath := TypePath{Pkg: scope.pkgPath, Name: name}
	migrationName := ""
	if d.kind == KindMigration {
		if !strings.HasPrefix(name, "_") {
			x.errs.add(&UnsupportedModelError{Pos: pos, TypeName: name,
				Reason: "migration model names must start with an underscore"})
			return nil
		}
		// The stripped path is what the snapshot is matched against.
		typePath = TypePath{Pkg: stripMigrationSegments(scope.pkgPath), Name: strings.TrimPrefix(name, "_")}
		migrationName = migrationNameOfPath(f.Path)
	}

	m := &Model{
		TypePath:      typePath,
		AppName:       x.appName,
		TableName:     toSnakeCase(typePath.Name),
		Kind:          d.kind,
		Removed:       d.removed,
		MigrationName: migrationName,
		File:          f.Path,
		Pos:           pos,
	}

	fa := &fieldAnalyser{fset: x.fset, scope: scope, model: m}
	pkCount := 0
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			x.errs.add(&UnsupportedModelError{Pos: x.fset.Position(field.Pos()), TypeName: name,
				Reason: "embedded fields are not supported in models"})
			continue
		}
		for _, fieldName := range field.Names {
			decoded, err := fa.analyse(fieldName.Name, field)
			if err != nil {
				x.errs.add(err)
				continue
			}
			if decoded.PrimaryKey {
				pkCount++
			}
			m.Fields = append(m.Fields, decoded)
		}
	}
	if pkCount != 1 && !m.Removed {
		x.errs.add(&PrimaryKeyError{Pos: pos, TypeName: name, Count: pkCount})
		return nil
	}
	return m
}

// migrationNameOfPath derives the declaring migration's name from a source
// path inside the migrations directory, for ordering snapshots while folding
// the previous state.
func migrationNameOfPath(path string) string {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSuffix(segments[i], ".go")
		if migrationNameRe.MatchString(seg) {
			return seg
		}
	}
	return ""
}
