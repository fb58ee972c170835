package migrations

import (
	"fmt"
	"sort"
)

// projectState is the model repository: the previous state reconstructed from
// migration snapshots and the target state declared by application models,
// both keyed by canonical type path.
type projectState struct {
	previous map[TypePath]*Model
	target   map[TypePath]*Model
}

// buildState folds extracted models into the previous and target states.
//
// Migration snapshots are folded in ascending migration-name order; a later
// snapshot of a type replaces the earlier one, and a tombstone snapshot
// removes the type from the previous state. Two snapshots of one type inside
// the same migration file are an error.
func buildState(models []*Model) (*projectState, error) {
	st := &projectState{
		previous: make(map[TypePath]*Model),
		target:   make(map[TypePath]*Model),
	}
	var errs errorList

	var snapshots []*Model
	for _, m := range models {
		switch m.Kind {
		case KindApplication:
			if existing, ok := st.target[m.TypePath]; ok {
				errs.add(fmt.Errorf("%s: model %s already declared at %s", m.Pos, m.TypePath, existing.Pos))
				continue
			}
			st.target[m.TypePath] = m
		case KindMigration:
			snapshots = append(snapshots, m)
		}
	}

	// Table names are unique per app.
	tables := make(map[string]*Model)
	for _, m := range st.target {
		key := m.AppName + "\x00" + m.TableName
		if existing, ok := tables[key]; ok {
			errs.add(fmt.Errorf("%s: table %s already used by %s (declared at %s)",
				m.Pos, m.TableName, existing.TypePath, existing.Pos))
			continue
		}
		tables[key] = m
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		if snapshots[i].MigrationName != snapshots[j].MigrationName {
			return snapshots[i].MigrationName < snapshots[j].MigrationName
		}
		return snapshots[i].TypePath.Less(snapshots[j].TypePath)
	})
	for _, m := range snapshots {
		if existing, ok := st.previous[m.TypePath]; ok && existing.MigrationName == m.MigrationName {
			errs.add(&DuplicateSnapshotError{Pos: m.Pos, TypePath: m.TypePath, Migration: m.MigrationName})
			continue
		}
		if m.Removed {
			delete(st.previous, m.TypePath)
			continue
		}
		st.previous[m.TypePath] = m
	}

	if !errs.empty() {
		return nil, errs.err()
	}

	st.adoptSnapshotPaths(tables)
	if err := st.backfillForeignKeys(); err != nil {
		return nil, err
	}
	return st, nil
}

// adoptSnapshotPaths re-keys snapshots whose stripped type path does not
// match any application model but whose table name identifies exactly one:
// this keeps models declared in subpackages matched to their snapshots.
func (st *projectState) adoptSnapshotPaths(tables map[string]*Model) {
	rekeyed := make(map[TypePath]TypePath)
	for path, m := range st.previous {
		if _, ok := st.target[path]; ok {
			continue
		}
		app, ok := tables[m.AppName+"\x00"+m.TableName]
		if !ok {
			continue
		}
		if _, taken := st.previous[app.TypePath]; taken {
			continue
		}
		delete(st.previous, path)
		m.TypePath = app.TypePath
		st.previous[app.TypePath] = m
		rekeyed[path] = app.TypePath
	}
	if len(rekeyed) == 0 {
		return
	}
	// Foreign keys recorded in snapshots point at the old attribution.
	for _, m := range st.previous {
		for i := range m.Fields {
			f := &m.Fields[i]
			if f.ForeignKey == nil {
				continue
			}
			if to, ok := rekeyed[*f.ForeignKey]; ok {
				target := to
				f.ForeignKey = &target
			}
		}
	}
}

// backfillForeignKeys sets the column type of every foreign-key field to the
// column type of the target model's primary key, preferring the target state
// over the previous one.
func (st *projectState) backfillForeignKeys() error {
	var errs errorList
	fill := func(m *Model) {
		for i := range m.Fields {
			f := &m.Fields[i]
			if f.ForeignKey == nil {
				continue
			}
			target, ok := st.target[*f.ForeignKey]
			if !ok {
				target, ok = st.previous[*f.ForeignKey]
			}
			if !ok {
				errs.add(&ForeignKeyTargetMissingError{
					Pos: f.Pos, TypeName: m.TypePath.Name, FieldName: f.FieldName, Target: *f.ForeignKey,
				})
				continue
			}
			pk := target.primaryKey()
			if pk == nil {
				errs.add(&ForeignKeyTargetMissingError{
					Pos: f.Pos, TypeName: m.TypePath.Name, FieldName: f.FieldName, Target: *f.ForeignKey,
				})
				continue
			}
			f.ColumnType = pk.ColumnType
		}
	}
	for _, m := range st.target {
		fill(m)
	}
	for _, m := range st.previous {
		fill(m)
	}
	return errs.err()
}

// sortedPaths returns the union of type paths across both states in
// lexicographic order.
func (st *projectState) sortedPaths() []TypePath {
	seen := make(map[TypePath]bool)
	var paths []TypePath
	for p := range st.previous {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for p := range st.target {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].Less(paths[j]) })
	return paths
}
