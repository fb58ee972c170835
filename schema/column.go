package schema

import "fmt"

// ColumnKind enumerates the portable column types quarry knows how to map to
// every supported database backend.
type ColumnKind int

const (
	KindInvalid ColumnKind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindDate
	KindTime
	KindDateTime
	KindDateTimeTz
	KindTimestamp
	KindTimestampTz
	KindText
	KindBlob
	KindString
)

// ColumnType is a portable column type. Size is meaningful only for
// KindString, where it carries the compile-time bound of the column.
type ColumnType struct {
	Kind ColumnKind
	Size int
}

// The fixed-size column types. The date and time values carry a Col prefix
// to keep them apart from the field marker types of the same names.
var (
	Bool           = ColumnType{Kind: KindBool}
	Int8           = ColumnType{Kind: KindI8}
	Int16          = ColumnType{Kind: KindI16}
	Int32          = ColumnType{Kind: KindI32}
	Int64          = ColumnType{Kind: KindI64}
	Uint8          = ColumnType{Kind: KindU8}
	Uint16         = ColumnType{Kind: KindU16}
	Uint32         = ColumnType{Kind: KindU32}
	Uint64         = ColumnType{Kind: KindU64}
	Float32        = ColumnType{Kind: KindF32}
	Float64        = ColumnType{Kind: KindF64}
	ColDate        = ColumnType{Kind: KindDate}
	ColTime        = ColumnType{Kind: KindTime}
	ColDateTime    = ColumnType{Kind: KindDateTime}
	ColDateTimeTz  = ColumnType{Kind: KindDateTimeTz}
	ColTimestamp   = ColumnType{Kind: KindTimestamp}
	ColTimestampTz = ColumnType{Kind: KindTimestampTz}
	Text           = ColumnType{Kind: KindText}
	Blob           = ColumnType{Kind: KindBlob}
)

// String returns a bounded string column type of at most n characters.
func String(n int) ColumnType {
	return ColumnType{Kind: KindString, Size: n}
}

// IsInteger reports whether the column type is one of the integer kinds.
// Auto-incrementing values are only supported on integer columns.
func (t ColumnType) IsInteger() bool {
	switch t.Kind {
	case KindI8, KindI16, KindI32, KindI64, KindU8, KindU16, KindU32, KindU64:
		return true
	}
	return false
}

func (t ColumnType) String() string {
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime"
	case KindDateTimeTz:
		return "datetime_tz"
	case KindTimestamp:
		return "timestamp"
	case KindTimestampTz:
		return "timestamp_tz"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	case KindString:
		return fmt.Sprintf("string(%d)", t.Size)
	}
	return "invalid"
}
