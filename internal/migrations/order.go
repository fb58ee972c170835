package migrations

import "sort"

// orderOperations arranges the diffed operations into their final sequence:
// CreateModels in topological foreign-key order, then the AddFields produced
// by cycle breaking, then field operations for surviving models, then
// RemoveModels.
//
// Only CreateModel operations need intra-migration ordering; a model must be
// created before any other new model declares a foreign key to it. When the
// foreign-key graph among the new models is cyclic, one deterministically
// chosen field is peeled off its CreateModel and appended as a follow-up
// AddField, and the sort is retried. Each peel removes at least one
// intra-batch edge, so the loop terminates.
func orderOperations(ops []operation) []operation {
	var creates, fieldOps, removes []operation
	for _, op := range ops {
		switch op.kind {
		case opCreateModel:
			creates = append(creates, op)
		case opRemoveModel:
			removes = append(removes, op)
		default:
			fieldOps = append(fieldOps, op)
		}
	}

	sort.SliceStable(creates, func(i, j int) bool {
		return creates[i].model.TypePath.Less(creates[j].model.TypePath)
	})

	var followUps []operation
	for {
		sorted, cycle, err := toposortCreates(creates)
		if err == nil {
			ordered := make([]operation, 0, len(ops)+len(followUps))
			for _, idx := range sorted {
				ordered = append(ordered, creates[idx])
			}
			ordered = append(ordered, followUps...)
			ordered = append(ordered, fieldOps...)
			ordered = append(ordered, removes...)
			return ordered
		}
		followUps = append(followUps, breakCycle(creates, cycle))
	}
}

// toposortCreates builds the dependency graph over the batch of CreateModel
// operations and sorts it. An edge A -> B means B declares a foreign key to
// A, so A must be created first.
func toposortCreates(creates []operation) (sorted, cycle []int, err error) {
	index := make(map[TypePath]int, len(creates))
	for i, op := range creates {
		index[op.model.TypePath] = i
	}
	g := newGraph(len(creates))
	for i, op := range creates {
		for _, f := range op.fields {
			if f.ForeignKey == nil {
				continue
			}
			if target, ok := index[*f.ForeignKey]; ok && target != i {
				g.addEdge(target, i)
			}
		}
	}
	return g.toposort()
}

// breakCycle picks one edge on the cycle by a deterministic rule: the edge
// whose target model has the lexicographically largest type path, and among
// that model's foreign-key fields pointing at the edge's source model, the
// one with the largest field name. The field is removed from its CreateModel and returned as an
// AddField to append after the creates.
func breakCycle(creates []operation, cycle []int) operation {
	// Edges of the cycle: consecutive pairs plus the closing edge.
	type edge struct{ from, to int }
	edges := make([]edge, 0, len(cycle))
	for i := range cycle {
		edges = append(edges, edge{cycle[i], cycle[(i+1)%len(cycle)]})
	}

	chosen := edges[0]
	for _, e := range edges[1:] {
		if creates[chosen.to].model.TypePath.Less(creates[e.to].model.TypePath) {
			chosen = e
		}
	}

	victim := &creates[chosen.to]
	source := creates[chosen.from].model.TypePath
	fieldIdx := -1
	for i, f := range victim.fields {
		if f.ForeignKey == nil || *f.ForeignKey != source {
			continue
		}
		if fieldIdx < 0 || victim.fields[fieldIdx].FieldName < f.FieldName {
			fieldIdx = i
		}
	}

	peeled := victim.fields[fieldIdx]
	victim.fields = append(victim.fields[:fieldIdx:fieldIdx], victim.fields[fieldIdx+1:]...)
	return operation{kind: opAddField, model: victim.model, field: &peeled}
}
