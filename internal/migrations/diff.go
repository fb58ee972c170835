package migrations

// opKind tags the variant of an internal operation.
type opKind int

const (
	opCreateModel opKind = iota
	opRemoveModel
	opAddField
	opRemoveField
)

// operation is one schema transformation with full field metadata, as
// produced by the diff engine and consumed by the serialiser.
type operation struct {
	kind  opKind
	model *Model
	// fields is the full field list for create/remove model operations. It
	// is a copy, so the cycle breaker can peel fields off a create without
	// mutating the extracted model.
	fields []Field
	// field is the single field of add/remove field operations.
	field *Field
}

// diff computes the operations transforming the previous state into the
// target state. Models are processed in lexicographic type-path order;
// within a model, removes precede adds.
func (st *projectState) diff() []operation {
	var ops []operation
	for _, path := range st.sortedPaths() {
		prev, inPrev := st.previous[path]
		target, inTarget := st.target[path]

		switch {
		case inTarget && !inPrev:
			ops = append(ops, operation{kind: opCreateModel, model: target, fields: copyFields(target.Fields)})
		case inPrev && !inTarget:
			ops = append(ops, operation{kind: opRemoveModel, model: prev, fields: copyFields(prev.Fields)})
		default:
			ops = append(ops, diffFields(prev, target)...)
		}
	}
	return ops
}

// diffFields computes the symmetric difference of two field lists keyed by
// field name. A field present on both sides but differing in any attribute
// becomes a remove followed by an add; renames are not detected.
func diffFields(prev, target *Model) []operation {
	var ops []operation
	for i := range prev.Fields {
		pf := &prev.Fields[i]
		tf := target.fieldByName(pf.FieldName)
		if tf == nil || !tf.equal(pf) {
			f := *pf
			ops = append(ops, operation{kind: opRemoveField, model: target, field: &f})
		}
	}
	for i := range target.Fields {
		tf := &target.Fields[i]
		pf := prev.fieldByName(tf.FieldName)
		if pf == nil || !pf.equal(tf) {
			f := *tf
			ops = append(ops, operation{kind: opAddField, model: target, field: &f})
		}
	}
	return ops
}

func copyFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}
