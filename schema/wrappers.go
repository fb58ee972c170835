package schema

import "time"

// Auto marks an auto-incrementing column. Auto fields must be integer primary
// keys; the database assigns the value on insert.
type Auto[T any] struct {
	value T
	set   bool
}

// Value returns the database-assigned value. ok is false before the row has
// been inserted.
func (a Auto[T]) Value() (value T, ok bool) {
	return a.value, a.set
}

// ForeignKey references the primary key of another model. The column type of
// a foreign-key field is the column type of the target model's primary key.
type ForeignKey[T any] struct {
	row *T
}

// Get returns the referenced row if it has been loaded.
func (f ForeignKey[T]) Get() (row *T, ok bool) {
	return f.row, f.row != nil
}

// LimitedString declares a bounded string column. The bound is carried by the
// field's model tag, which is required on every LimitedString field:
//
//	Title schema.LimitedString `model:"max_length=255"`
type LimitedString string

// Date is a calendar date without a time component.
type Date struct{ time.Time }

// Time is a wall-clock time without a date component.
type Time struct{ time.Time }

// DateTime is a date and time without a timezone.
type DateTime struct{ time.Time }

// Timestamp is a point in time stored without timezone information.
type Timestamp struct{ time.Time }

// TimestampTz is a point in time stored with timezone information.
type TimestampTz struct{ time.Time }
