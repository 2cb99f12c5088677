// Package param defines the polymorphic parameter value the BLR encoder
// consumes: one tagged variant per wire-encodable statement input shape
// (text, bytes, integer, floating, fixed-point decimal, date, time,
// timestamp, boolean, null, and a string-rendered fallback "other").
package param

import (
	"time"

	"github.com/shopspring/decimal"
)

// Value is implemented by every wire-encodable parameter shape. The marker
// method keeps the set closed to this package.
type Value interface {
	isValue()
}

// Text is a parameter whose wire representation is its UTF-8 bytes.
type Text string

func (Text) isValue() {}

// Bytes is a parameter supplied as raw bytes.
type Bytes []byte

func (Bytes) isValue() {}

// Int is a parameter that fits in a signed 32-bit wire integer.
type Int int32

func (Int) isValue() {}

// Float is an IEEE double, including +/-Inf, encoded through the BLR
// floating-point branch.
type Float float64

func (Float) isValue() {}

// Decimal is a fixed-point value with its own base-10 exponent, encoded
// through the BLR fixed-point branch (mantissa + exponent byte). Built on
// shopspring/decimal so callers can hand in exact monetary values instead
// of round-tripping through float64.
type Decimal decimal.Decimal

func (Decimal) isValue() {}

// Date is a calendar date with no time component.
type Date time.Time

func (Date) isValue() {}

// Time is a time-of-day value with no date component.
type Time time.Time

func (Time) isValue() {}

// Timestamp carries both a date and a time-of-day component.
type Timestamp time.Time

func (Timestamp) isValue() {}

// Bool is a boolean parameter.
type Bool bool

func (Bool) isValue() {}

// Null is the SQL NULL parameter.
type Null struct{}

func (Null) isValue() {}

// Other is the fallback variant for any value not otherwise representable:
// it is serialized by its string form.
type Other string

func (Other) isValue() {}
