package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/mod/modfile"
)

func TestNewProject(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "myblog")

	if err := NewProject(dest, "", Source{Version: "v0.2.0"}); err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}

	for _, rel := range []string{"go.mod", "main.go", "models.go", ".gitignore", "quarry.yaml", "migrations/migrations.go"} {
		if _, err := os.Stat(filepath.Join(dest, rel)); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dest, "go.mod"))
	if err != nil {
		t.Fatal(err)
	}
	f, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		t.Fatalf("scaffolded go.mod does not parse: %v", err)
	}
	if f.Module.Mod.Path != "myblog" {
		t.Errorf("module path = %q, want myblog", f.Module.Mod.Path)
	}
	found := false
	for _, r := range f.Require {
		if r.Mod.Path == quarryModulePath && r.Mod.Version == "v0.2.0" {
			found = true
		}
	}
	if !found {
		t.Errorf("go.mod does not require %s: %s", quarryModulePath, data)
	}

	mainSrc, err := os.ReadFile(filepath.Join(dest, "main.go"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mainSrc), `"myblog/migrations"`) {
		t.Errorf("main.go does not import the migrations registry:\n%s", mainSrc)
	}
}

func TestNewProjectPathSource(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "myblog")

	if err := NewProject(dest, "myblog", Source{Path: "../quarry"}); err != nil {
		t.Fatalf("NewProject failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "go.mod"))
	if err != nil {
		t.Fatal(err)
	}
	f, err := modfile.Parse("go.mod", data, nil)
	if err != nil {
		t.Fatalf("scaffolded go.mod does not parse: %v", err)
	}
	if len(f.Replace) != 1 || f.Replace[0].New.Path != "../quarry" {
		t.Errorf("expected a replace directive to ../quarry, got %s", data)
	}
}

func TestNewProjectRefusesExistingDestination(t *testing.T) {
	dest := t.TempDir()
	if err := NewProject(dest, "taken", Source{}); err == nil {
		t.Fatal("expected an error for an existing destination")
	}
}

func TestNewProjectRejectsBadName(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "x")
	if err := NewProject(dest, "bad name!", Source{}); err == nil {
		t.Fatal("expected an error for an invalid project name")
	}
}
