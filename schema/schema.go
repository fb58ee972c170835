// Package schema is the vocabulary that quarry models and generated
// migrations are written in.
//
// User code declares persistent models as annotated structs whose fields use
// the wrapper types in this package (Auto, ForeignKey, LimitedString, the
// date/time markers). Generated migration files compile against the value
// types (ColumnType, Field, Operation, Dependency, Migration) and are
// registered with the application through each app's migrations registry.
package schema

import "sort"

// Migration is one named, ordered set of schema operations together with the
// dependencies that must be satisfied before it runs.
type Migration struct {
	App          string
	Name         string
	Dependencies []Dependency
	Operations   []Operation
}

// SortMigrations orders migrations by app name and migration name so that the
// order of applying them is consistent and deterministic.
func SortMigrations(migrations []Migration) {
	sort.SliceStable(migrations, func(i, j int) bool {
		if migrations[i].App != migrations[j].App {
			return migrations[i].App < migrations[j].App
		}
		return migrations[i].Name < migrations[j].Name
	})
}
