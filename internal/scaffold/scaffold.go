// Package scaffold creates new quarry project skeletons.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"golang.org/x/mod/modfile"

	"github.com/quarry-dev/quarry/internal/config"
	"github.com/quarry-dev/quarry/internal/migrations"
	"github.com/quarry-dev/quarry/internal/ui"
)

//go:embed all:templates
var templatesFS embed.FS

// quarryModulePath is the dependency written into scaffolded projects.
const quarryModulePath = "github.com/quarry-dev/quarry"

// Source selects how a scaffolded project's go.mod obtains the quarry
// dependency.
type Source struct {
	// Git tracks the development branch instead of a released version.
	Git bool
	// Path points the dependency at a local checkout with a replace
	// directive.
	Path string
	// Version is the released version used when neither Git nor Path is
	// set.
	Version string
}

// templateData is what the project templates interpolate.
type templateData struct {
	ProjectName string
	ModulePath  string
}

// NewProject scaffolds a project skeleton at path. The destination must not
// exist.
func NewProject(path, projectName string, src Source) error {
	if projectName == "" {
		projectName = filepath.Base(filepath.Clean(path))
	}
	if !validProjectName(projectName) {
		return fmt.Errorf("invalid project name %q: use letters, digits, '-' and '_'", projectName)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("destination %s already exists", path)
	}

	ui.Status("Creating", fmt.Sprintf("quarry project `%s`", projectName))

	data := templateData{ProjectName: projectName, ModulePath: projectName}
	if err := renderTemplates(path, data); err != nil {
		os.RemoveAll(path)
		return err
	}
	if err := writeGoMod(filepath.Join(path, "go.mod"), data.ModulePath, src); err != nil {
		os.RemoveAll(path)
		return err
	}
	if err := config.WriteDefault(filepath.Join(path, config.ConfigFileName), projectName); err != nil {
		os.RemoveAll(path)
		return err
	}
	if err := writeRegistry(path, data.ModulePath); err != nil {
		os.RemoveAll(path)
		return err
	}

	ui.Status("Created", path)
	return nil
}

func validProjectName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func renderTemplates(root string, data templateData) error {
	return fs.WalkDir(templatesFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(path, "templates/")
		rel = strings.TrimSuffix(rel, ".tmpl")
		dest := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}

		raw, err := templatesFS.ReadFile(path)
		if err != nil {
			return err
		}
		tmpl, err := template.New(rel).Parse(string(raw))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", rel, err)
		}
		out, err := os.Create(dest)
		if err != nil {
			return err
		}
		if err := tmpl.Execute(out, data); err != nil {
			out.Close()
			return fmt.Errorf("rendering %s: %w", rel, err)
		}
		return out.Close()
	})
}

// writeGoMod builds the project manifest with x/mod instead of a text
// template, so the replace directive and versions are always well-formed.
func writeGoMod(path, modulePath string, src Source) error {
	f := new(modfile.File)
	if err := f.AddModuleStmt(modulePath); err != nil {
		return err
	}
	if err := f.AddGoStmt("1.24"); err != nil {
		return err
	}

	version := src.Version
	if version == "" {
		version = "v0.1.0"
	}
	switch {
	case src.Path != "":
		if err := f.AddRequire(quarryModulePath, version); err != nil {
			return err
		}
		if err := f.AddReplace(quarryModulePath, "", src.Path, ""); err != nil {
			return err
		}
	case src.Git:
		// Track the development branch; the first `go get` resolves the
		// pseudo-version.
		if err := f.AddRequire(quarryModulePath, "v0.0.0-00010101000000-000000000000"); err != nil {
			return err
		}
	default:
		if err := f.AddRequire(quarryModulePath, version); err != nil {
			return err
		}
	}

	f.Cleanup()
	data, err := f.Format()
	if err != nil {
		return fmt.Errorf("formatting go.mod: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeRegistry(root, modulePath string) error {
	dir := filepath.Join(root, "migrations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	registry, err := migrations.RegistrySource(modulePath+"/migrations", nil)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "migrations.go"), []byte(registry), 0o644)
}
