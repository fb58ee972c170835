package migrations

import (
	"fmt"
	"go/ast"
	"strconv"
	"strings"
)

// schemaPkgPath is the import path of the package declaring the model wrapper
// types.
const schemaPkgPath = "github.com/quarry-dev/quarry/schema"

// fileScope carries everything needed to resolve a local type reference
// inside one source file to a canonical TypePath: the file's package path
// within the module and its import table (honouring aliases).
type fileScope struct {
	modulePath string
	pkgPath    string
	filePath   string
	imports    map[string]string
}

// newFileScope builds the scope of one parsed file. Import names default to
// the final segment of the import path; an alias rewrites the local name the
// same way a use/as declaration would.
func newFileScope(modulePath string, file SourceFile) *fileScope {
	s := &fileScope{
		modulePath: modulePath,
		pkgPath:    packagePath(modulePath, file.Path),
		filePath:   file.Path,
		imports:    make(map[string]string),
	}
	for _, imp := range file.File.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			name = path[i+1:]
		}
		if imp.Name != nil {
			switch imp.Name.Name {
			case "_", ".":
				continue
			default:
				name = imp.Name.Name
			}
		}
		s.imports[name] = path
	}
	return s
}

// resolveType resolves a type reference to a canonical TypePath. A bare
// identifier names a type in the declaring file's package; a selector is
// resolved through the import table.
func (s *fileScope) resolveType(expr ast.Expr) (TypePath, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		return TypePath{Pkg: s.pkgPath, Name: t.Name}, nil
	case *ast.SelectorExpr:
		pkgIdent, ok := t.X.(*ast.Ident)
		if !ok {
			return TypePath{}, fmt.Errorf("unsupported type reference")
		}
		path, ok := s.imports[pkgIdent.Name]
		if !ok {
			return TypePath{}, fmt.Errorf("package %s is not imported", pkgIdent.Name)
		}
		return TypePath{Pkg: path, Name: t.Sel.Name}, nil
	default:
		return TypePath{}, fmt.Errorf("unsupported type reference")
	}
}

// stripMigrationSegments rewrites the package path of a migration-kind model
// so snapshots are attributed to the package that owns the migrations
// directory: ".../migrations/m_0001_initial" and ".../migrations" both
// collapse to "...".
func stripMigrationSegments(pkgPath string) string {
	segments := strings.Split(pkgPath, "/")
	if len(segments) >= 2 && segments[len(segments)-2] == "migrations" && migrationNameRe.MatchString(segments[len(segments)-1]) {
		return strings.Join(segments[:len(segments)-2], "/")
	}
	if len(segments) >= 1 && segments[len(segments)-1] == "migrations" {
		return strings.Join(segments[:len(segments)-1], "/")
	}
	return pkgPath
}
