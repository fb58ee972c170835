package migrations

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SourceFile is one parsed project source file. The path is kept relative to
// the project root so that diagnostics and package attribution are stable
// regardless of where the generator runs.
type SourceFile struct {
	Path string
	File *ast.File
}

// ParseSource parses a single source file. The path is recorded for
// diagnostics and for computing the file's package path within the module.
func ParseSource(fset *token.FileSet, path string, src []byte) (SourceFile, error) {
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return SourceFile{}, &ParseError{Path: path, Err: err}
	}
	return SourceFile{Path: filepath.ToSlash(path), File: file}, nil
}

// LoadSources walks the project root and parses every non-test Go source
// file. Files are returned in lexicographic path order to guarantee
// deterministic downstream behaviour. Parse failures are accumulated so the
// user sees all of them at once.
func LoadSources(fset *token.FileSet, root string) ([]SourceFile, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				return filepath.SkipDir
			}
			// Nested modules are separate apps; their sources are not part
			// of this one.
			if _, statErr := os.Stat(filepath.Join(path, "go.mod")); statErr == nil {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)

	var files []SourceFile
	var errs errorList
	for _, rel := range paths {
		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			errs.add(&ParseError{Path: rel, Err: err})
			continue
		}
		file, err := ParseSource(fset, rel, src)
		if err != nil {
			errs.add(err)
			continue
		}
		files = append(files, file)
	}
	if !errs.empty() {
		return nil, errs.err()
	}
	return files, nil
}

// packagePath computes the import path of the package declaring a source
// file, from the file's path relative to the module root.
func packagePath(modulePath, filePath string) string {
	dir := filepath.ToSlash(filepath.Dir(filePath))
	if dir == "." || dir == "" {
		return modulePath
	}
	return modulePath + "/" + dir
}
