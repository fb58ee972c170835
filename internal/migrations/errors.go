package migrations

import (
	"fmt"
	"go/token"
	"strings"
)

// ParseError reports a source file that failed to parse.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnsupportedModelError reports a model declaration using a construct the
// generator does not support (generics, unnamed fields, non-struct types).
type UnsupportedModelError struct {
	Pos      token.Position
	TypeName string
	Reason   string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("%s: model %s: %s", e.Pos, e.TypeName, e.Reason)
}

// PrimaryKeyError reports a model declaring zero or more than one primary
// key.
type PrimaryKeyError struct {
	Pos      token.Position
	TypeName string
	Count    int
}

func (e *PrimaryKeyError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("%s: model %s has no primary key; exactly one field must carry the primary_key tag", e.Pos, e.TypeName)
	}
	return fmt.Sprintf("%s: model %s declares %d primary keys; exactly one is allowed", e.Pos, e.TypeName, e.Count)
}

// FieldTypeError reports a field whose declared type cannot be mapped to a
// column type, or whose attributes are invalid.
type FieldTypeError struct {
	Pos       token.Position
	TypeName  string
	FieldName string
	Reason    string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("%s: field %s.%s: %s", e.Pos, e.TypeName, e.FieldName, e.Reason)
}

// ForeignKeyTargetMissingError reports a foreign key pointing at a type not
// found in either the previous or the target state.
type ForeignKeyTargetMissingError struct {
	Pos       token.Position
	TypeName  string
	FieldName string
	Target    TypePath
}

func (e *ForeignKeyTargetMissingError) Error() string {
	return fmt.Sprintf("%s: field %s.%s references %s, which is not a known model",
		e.Pos, e.TypeName, e.FieldName, e.Target)
}

// DuplicateSnapshotError reports two migration-kind models resolving to the
// same type path within one migration file.
type DuplicateSnapshotError struct {
	Pos       token.Position
	TypePath  TypePath
	Migration string
}

func (e *DuplicateSnapshotError) Error() string {
	return fmt.Sprintf("%s: duplicate snapshot of %s in migration %s", e.Pos, e.TypePath, e.Migration)
}

// NamingConflictError reports that the computed next migration name already
// exists on disk.
type NamingConflictError struct {
	Name string
	Path string
}

func (e *NamingConflictError) Error() string {
	return fmt.Sprintf("migration %s already exists at %s", e.Name, e.Path)
}

// errorList accumulates structural errors so the user sees every problem in
// one report instead of fixing them one at a time.
type errorList struct {
	errs []error
}

func (l *errorList) add(err error) {
	if err != nil {
		l.errs = append(l.errs, err)
	}
}

func (l *errorList) empty() bool { return len(l.errs) == 0 }

// err returns the accumulated errors as a single error, or nil.
func (l *errorList) err() error {
	switch len(l.errs) {
	case 0:
		return nil
	case 1:
		return l.errs[0]
	}
	msgs := make([]string, len(l.errs))
	for i, e := range l.errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d errors:\n%s", len(l.errs), strings.Join(msgs, "\n"))
}
