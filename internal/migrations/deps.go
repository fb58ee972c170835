package migrations

import "sort"

// depKind tags the variant of a dependency.
type depKind int

const (
	depMigration depKind = iota
	depModel
)

// dependency is a cross-migration ordering constraint: either on a prior
// migration of this app, or on the existence of a model created outside this
// migration.
type dependency struct {
	kind      depKind
	app       string
	migration string
	model     TypePath
}

// collectDependencies gathers the dependency set of the produced operation
// list: the latest prior migration of this app, when one exists, plus one
// model dependency for every foreign-key target that is not created by an
// operation in this migration. The set is de-duplicated and deterministic.
func collectDependencies(app, latestPrior string, ops []operation) []dependency {
	var deps []dependency
	if latestPrior != "" {
		deps = append(deps, dependency{kind: depMigration, app: app, migration: latestPrior})
	}

	createdHere := make(map[TypePath]bool)
	for _, op := range ops {
		if op.kind == opCreateModel {
			createdHere[op.model.TypePath] = true
		}
	}

	seen := make(map[TypePath]bool)
	var models []TypePath
	addTarget := func(f *Field) {
		if f.ForeignKey == nil || createdHere[*f.ForeignKey] || seen[*f.ForeignKey] {
			return
		}
		seen[*f.ForeignKey] = true
		models = append(models, *f.ForeignKey)
	}
	for _, op := range ops {
		switch op.kind {
		case opCreateModel:
			for i := range op.fields {
				addTarget(&op.fields[i])
			}
		case opAddField:
			addTarget(op.field)
		}
	}

	sort.Slice(models, func(i, j int) bool { return models[i].Less(models[j]) })
	for _, m := range models {
		deps = append(deps, dependency{kind: depModel, model: m})
	}
	return deps
}
