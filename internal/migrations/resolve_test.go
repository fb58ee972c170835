package migrations

import (
	"go/ast"
	"go/token"
	"testing"
)

func scopeFor(t *testing.T, path, src string) (*fileScope, *ast.File) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := ParseSource(fset, path, []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return newFileScope(testModule, file), file.File
}

// typeExprs returns the declared field types of the first struct in the
// file, keyed by field name.
func typeExprs(file *ast.File) map[string]ast.Expr {
	out := make(map[string]ast.Expr)
	ast.Inspect(file, func(n ast.Node) bool {
		st, ok := n.(*ast.StructType)
		if !ok {
			return true
		}
		for _, f := range st.Fields.List {
			for _, name := range f.Names {
				out[name.Name] = f.Type
			}
		}
		return false
	})
	return out
}

func TestResolveBareIdentifier(t *testing.T) {
	scope, file := scopeFor(t, "blog/post.go", `package blog

type Post struct {
	Author Author
}
`)
	got, err := scope.resolveType(typeExprs(file)["Author"])
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if want := (TypePath{Pkg: testModule + "/blog", Name: "Author"}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveRootPackage(t *testing.T) {
	scope, file := scopeFor(t, "main.go", `package main

type Post struct {
	Author Author
}
`)
	got, err := scope.resolveType(typeExprs(file)["Author"])
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if want := (TypePath{Pkg: testModule, Name: "Author"}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveImportedSelector(t *testing.T) {
	scope, file := scopeFor(t, "main.go", `package main

import "example.com/other/blog"

type Post struct {
	Author blog.Author
}
`)
	got, err := scope.resolveType(typeExprs(file)["Author"])
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if want := (TypePath{Pkg: "example.com/other/blog", Name: "Author"}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveAliasedImport(t *testing.T) {
	scope, file := scopeFor(t, "main.go", `package main

import b "example.com/other/blog"

type Post struct {
	Author b.Author
}
`)
	got, err := scope.resolveType(typeExprs(file)["Author"])
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if want := (TypePath{Pkg: "example.com/other/blog", Name: "Author"}); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveUnknownPackage(t *testing.T) {
	scope, file := scopeFor(t, "main.go", `package main

type Post struct {
	Author blog.Author
}
`)
	if _, err := scope.resolveType(typeExprs(file)["Author"]); err == nil {
		t.Fatal("expected an error for an unimported package")
	}
}

func TestStripMigrationSegments(t *testing.T) {
	tests := []struct{ in, want string }{
		{"example.com/app/migrations/m_0001_initial", "example.com/app"},
		{"example.com/app/migrations", "example.com/app"},
		{"example.com/app/blog", "example.com/app/blog"},
		{"example.com/app", "example.com/app"},
	}
	for _, tt := range tests {
		if got := stripMigrationSegments(tt.in); got != tt.want {
			t.Errorf("stripMigrationSegments(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
