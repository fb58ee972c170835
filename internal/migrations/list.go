package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
)

// AppMigration is one (app, migration) pair of the listing operation.
type AppMigration struct {
	App       string
	Migration string
}

// ListMigrations discovers every app under root (the module at root plus any
// nested modules) and returns their migrations sorted by app name, then
// migration name.
func ListMigrations(root string) ([]AppMigration, error) {
	goModPath, err := findGoMod(root)
	if err != nil {
		return nil, err
	}
	moduleRoot := filepath.Dir(goModPath)

	var appDirs []string
	err = filepath.WalkDir(moduleRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != moduleRoot && (name == "vendor" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return filepath.SkipDir
		}
		if _, statErr := os.Stat(filepath.Join(path, "go.mod")); statErr == nil {
			appDirs = append(appDirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", moduleRoot, err)
	}

	var out []AppMigration
	for _, dir := range appDirs {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Join(dir, "go.mod"), err)
		}
		modulePath := modfile.ModulePath(data)
		if modulePath == "" {
			continue
		}
		app := modulePath
		if i := strings.LastIndex(app, "/"); i >= 0 {
			app = app[i+1:]
		}
		names, err := scanMigrationNames(filepath.Join(dir, "migrations"))
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			out = append(out, AppMigration{App: app, Migration: name})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].App != out[j].App {
			return out[i].App < out[j].App
		}
		return out[i].Migration < out[j].Migration
	})
	return out, nil
}
