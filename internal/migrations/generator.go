package migrations

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/mod/modfile"

	"github.com/quarry-dev/quarry/internal/debuglog"
)

// Options tune a generator run.
type Options struct {
	// AppName overrides the app name; it defaults to the final element of
	// the module path.
	AppName string
	// OutputDir overrides the migrations directory; it defaults to the
	// migrations/ directory at the module root.
	OutputDir string
	// Slug overrides the generated migration's slug.
	Slug string
}

// Generator runs the migration pipeline for one project.
type Generator struct {
	root       string
	modulePath string
	appName    string
	options    Options
	fset       *token.FileSet

	// Warnings collected during the run, emitted by the caller after
	// success.
	Warnings []string

	now func() time.Time
}

// New builds a generator for the project containing root. The module
// manifest is found by walking up from root, the same way the toolchain
// does.
func New(root string, opts Options) (*Generator, error) {
	goModPath, err := findGoMod(root)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", goModPath, err)
	}
	modulePath := modfile.ModulePath(data)
	if modulePath == "" {
		return nil, fmt.Errorf("%s declares no module path", goModPath)
	}
	return newGenerator(filepath.Dir(goModPath), modulePath, opts), nil
}

func newGenerator(root, modulePath string, opts Options) *Generator {
	appName := opts.AppName
	if appName == "" {
		appName = modulePath
		if i := strings.LastIndex(appName, "/"); i >= 0 {
			appName = appName[i+1:]
		}
	}
	return &Generator{
		root:       root,
		modulePath: modulePath,
		appName:    appName,
		options:    opts,
		fset:       token.NewFileSet(),
		now:        time.Now,
	}
}

// findGoMod walks up from dir until it finds a go.mod.
func findGoMod(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no go.mod found in %s or any parent directory", dir)
		}
		dir = parent
	}
}

// generate runs extraction, state building, diffing, ordering and dependency
// collection over the given sources. It returns nil when the states already
// match.
func (g *Generator) generate(files []SourceFile, existingNames []string) (*generatedMigration, *projectState, error) {
	x := &extractor{fset: g.fset, modulePath: g.modulePath, appName: g.appName}
	models := x.extractModels(files)
	if !x.errs.empty() {
		return nil, nil, x.errs.err()
	}

	st, err := buildState(models)
	if err != nil {
		return nil, nil, err
	}

	ops := st.diff()
	if len(ops) == 0 {
		debuglog.Logf("generate: states match, nothing to do")
		return nil, st, nil
	}
	g.collectWarnings(ops)
	ops = orderOperations(ops)

	names := append([]string(nil), existingNames...)
	for _, m := range models {
		if m.Kind == KindMigration && m.MigrationName != "" {
			names = append(names, m.MigrationName)
		}
	}
	sort.Strings(names)

	name, err := nextMigrationName(names, g.options.Slug, g.now())
	if err != nil {
		return nil, nil, err
	}
	deps := collectDependencies(g.appName, latestMigration(names), ops)

	debuglog.Logf("generate: %d operations, %d dependencies, name %s", len(ops), len(deps), name)
	return &generatedMigration{
		app:          g.appName,
		name:         name,
		dependencies: deps,
		operations:   ops,
	}, st, nil
}

// collectWarnings notes field changes that are expressed as remove+add, since
// they drop the column data.
func (g *Generator) collectWarnings(ops []operation) {
	removed := make(map[string]bool)
	for _, op := range ops {
		if op.kind == opRemoveField {
			removed[op.model.TypePath.String()+"."+op.field.FieldName] = true
		}
	}
	for _, op := range ops {
		if op.kind != opAddField || op.field == nil {
			continue
		}
		key := op.model.TypePath.String() + "." + op.field.FieldName
		if removed[key] {
			g.Warnings = append(g.Warnings,
				fmt.Sprintf("field %s changed attributes; it will be dropped and re-added, losing existing data", key))
		}
	}
	sort.Strings(g.Warnings)
}

// MakeFromSources runs the full pipeline over pre-parsed sources and returns
// the migration as source text, or nil when no migration is needed. Nothing
// is written to disk; the tests use it with in-memory sources.
func (g *Generator) MakeFromSources(files []SourceFile) (*MigrationAsSource, error) {
	m, st, err := g.generate(files, nil)
	if err != nil || m == nil {
		return nil, err
	}
	s := &serialiser{st: st, modulePath: g.modulePath, m: m}
	content, err := s.render()
	if err != nil {
		return nil, err
	}
	return &MigrationAsSource{Name: m.name, Content: content}, nil
}

// ParseSources parses in-memory (path, source) pairs against this
// generator's file set.
func (g *Generator) ParseSources(sources map[string]string) ([]SourceFile, error) {
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	var files []SourceFile
	var errs errorList
	for _, p := range paths {
		f, err := ParseSource(g.fset, p, []byte(sources[p]))
		if err != nil {
			errs.add(err)
			continue
		}
		files = append(files, f)
	}
	if !errs.empty() {
		return nil, errs.err()
	}
	return files, nil
}

// Make loads the project sources from disk, generates the next migration if
// the model state changed, and writes it to the migrations directory along
// with the refreshed registry. It returns nil when there was nothing to do.
func (g *Generator) Make() (*MigrationAsSource, error) {
	outputDir := g.outputDir()

	lock, err := acquireLock(outputDir)
	if err != nil {
		return nil, err
	}
	defer releaseLock(lock)

	files, err := LoadSources(g.fset, g.root)
	if err != nil {
		return nil, err
	}
	existing, err := scanMigrationNames(outputDir)
	if err != nil {
		return nil, err
	}

	m, st, err := g.generate(files, existing)
	if err != nil || m == nil {
		return nil, err
	}
	s := &serialiser{st: st, modulePath: g.modulePath, m: m}
	content, err := s.render()
	if err != nil {
		return nil, err
	}
	out := &MigrationAsSource{Name: m.name, Content: content}
	if err := g.write(outputDir, out); err != nil {
		return nil, err
	}
	return out, nil
}

// NewEmpty writes an empty migration with the given slug: no operations, a
// dependency on the latest prior migration when one exists.
func (g *Generator) NewEmpty(slug string) (*MigrationAsSource, error) {
	outputDir := g.outputDir()

	lock, err := acquireLock(outputDir)
	if err != nil {
		return nil, err
	}
	defer releaseLock(lock)

	existing, err := scanMigrationNames(outputDir)
	if err != nil {
		return nil, err
	}
	name, err := nextMigrationName(existing, slug, g.now())
	if err != nil {
		return nil, err
	}
	m := &generatedMigration{app: g.appName, name: name}
	if latest := latestMigration(existing); latest != "" {
		m.dependencies = []dependency{{kind: depMigration, app: g.appName, migration: latest}}
	}

	s := &serialiser{st: &projectState{}, modulePath: g.modulePath, m: m}
	content, err := s.render()
	if err != nil {
		return nil, err
	}
	out := &MigrationAsSource{Name: m.name, Content: content}
	if err := g.write(outputDir, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Generator) outputDir() string {
	if g.options.OutputDir != "" {
		return g.options.OutputDir
	}
	return filepath.Join(g.root, "migrations")
}

// write persists the migration and refreshes the registry. Writes are atomic
// per file: content goes to a temp file first and is renamed into place. No
// partial migration is ever left behind on error.
func (g *Generator) write(outputDir string, m *MigrationAsSource) error {
	dir := filepath.Join(outputDir, m.Name)
	if _, err := os.Stat(dir); err == nil {
		return &NamingConflictError{Name: m.Name, Path: dir}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating migration directory: %w", err)
	}
	if err := atomicWrite(filepath.Join(dir, m.Name+".go"), []byte(m.Content)); err != nil {
		os.RemoveAll(dir)
		return err
	}

	names, err := scanMigrationNames(outputDir)
	if err != nil {
		return err
	}
	registry, err := RegistrySource(g.migrationsPkgPath(outputDir), names)
	if err != nil {
		return err
	}
	return atomicWrite(filepath.Join(outputDir, "migrations.go"), []byte(registry))
}

// migrationsPkgPath computes the import path of the migrations package from
// the output directory's location within the module.
func (g *Generator) migrationsPkgPath(outputDir string) string {
	rel, err := filepath.Rel(g.root, outputDir)
	if err != nil || strings.HasPrefix(rel, "..") {
		return g.modulePath + "/migrations"
	}
	return g.modulePath + "/" + filepath.ToSlash(rel)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".quarry-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// acquireLock serialises concurrent generator runs against one migrations
// directory. The lock is advisory; the directory is created if needed so the
// lock file has somewhere to live.
func acquireLock(outputDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating migrations directory: %w", err)
	}
	lock := flock.New(filepath.Join(outputDir, ".quarry.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("locking migrations directory: %w", err)
	}
	return lock, nil
}

func releaseLock(lock *flock.Flock) {
	_ = lock.Unlock()
}
