package migrations

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestListMigrations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/blog\n\ngo 1.24\n")
	writeFile(t, filepath.Join(root, "migrations", "m_0001_initial", "m_0001_initial.go"), "package m_0001_initial\n")
	writeFile(t, filepath.Join(root, "migrations", "m_0002_extend", "m_0002_extend.go"), "package m_0002_extend\n")
	// Not a migration; must be ignored.
	writeFile(t, filepath.Join(root, "migrations", "notes", "notes.go"), "package notes\n")

	got, err := ListMigrations(root)
	if err != nil {
		t.Fatalf("ListMigrations failed: %v", err)
	}
	want := []AppMigration{
		{App: "blog", Migration: "m_0001_initial"},
		{App: "blog", Migration: "m_0002_extend"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestListMigrationsNestedApps(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/site\n\ngo 1.24\n")
	writeFile(t, filepath.Join(root, "migrations", "m_0001_initial", "m_0001_initial.go"), "package m_0001_initial\n")
	writeFile(t, filepath.Join(root, "apps", "shop", "go.mod"), "module example.com/shop\n\ngo 1.24\n")
	writeFile(t, filepath.Join(root, "apps", "shop", "migrations", "m_0001_initial", "m_0001_initial.go"), "package m_0001_initial\n")

	got, err := ListMigrations(root)
	if err != nil {
		t.Fatalf("ListMigrations failed: %v", err)
	}
	want := []AppMigration{
		{App: "shop", Migration: "m_0001_initial"},
		{App: "site", Migration: "m_0001_initial"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestListMigrationsEmpty(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/blog\n\ngo 1.24\n")

	got, err := ListMigrations(root)
	if err != nil {
		t.Fatalf("ListMigrations failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
