package schema

// DependencyKind tags the variant of a Dependency.
type DependencyKind int

const (
	// DepMigration orders this migration after another named migration.
	DepMigration DependencyKind = iota
	// DepModel requires that the named model exists; the migration that
	// creates it is implicitly depended on.
	DepModel
)

// Dependency declares an ordering constraint of a migration.
type Dependency struct {
	Kind      DependencyKind
	App       string
	Migration string
	// Model is the canonical type path of the required model,
	// e.g. "example.com/blog.Post".
	Model string
}

// MigrationDependency declares that this migration runs after the named one.
func MigrationDependency(app, migration string) Dependency {
	return Dependency{Kind: DepMigration, App: app, Migration: migration}
}

// ModelDependency declares that the model with the given canonical type path
// must exist before this migration runs.
func ModelDependency(typePath string) Dependency {
	return Dependency{Kind: DepModel, Model: typePath}
}
