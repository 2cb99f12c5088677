// Package status implements the status vector parser: the
// tagged-item stream every op_response (and several other replies) carries
// to report server-side success or failure.
package status

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/veyronfb/fbwire/internal/protocol/xdr"
)

// Status vector item tags (isc_arg_*).
const (
	argEnd         = 0
	argGDS         = 1
	argString      = 2
	argCString     = 3
	argNumber      = 4
	argInterpreted = 5
	argSQLState    = 19
)

// sqlCodeGDS is the gds code whose accompanying isc_arg_number is promoted
// to SQLCode.
const sqlCodeGDS = 335544436

// messages maps a handful of well-known gds codes to their @N-templated
// text. Codes not present here fall back to "@1": the raw substituted
// argument becomes the entire message. The full message catalog belongs
// to callers; this table only covers the codes this engine reports about
// its own traffic.
var messages = map[int32]string{
	335544321: "arithmetic exception, numeric overflow, or string truncation",
	335544344: "no permission for @2 access to @1 @3",
	335544347: "validation error for column @1, value \"@2\"",
	335544569: "invalid request BLR at offset @1",
}

// Vector is the decoded result of a status vector: the set of gds codes
// seen, the promoted SQL code (if any), the assembled message, and the
// additive SQLState field.
type Vector struct {
	GDSCodes []int32
	SQLCode  int32
	Message  string
	SQLState string
}

// HasError reports whether the vector represents a failure: a nonzero SQL
// code or nonempty message.
func (v Vector) HasError() bool {
	return v.SQLCode != 0 || v.Message != ""
}

// Parse reads tagged items from r until isc_arg_end.
func Parse(r io.Reader) (Vector, error) {
	var (
		v       Vector
		seen    = make(map[int32]bool)
		gdsCode int32
		numArg  int
	)

	for {
		tag, err := xdr.ReadInt32(r)
		if err != nil {
			return v, fmt.Errorf("status: read tag: %w", err)
		}
		if tag == argEnd {
			break
		}

		switch tag {
		case argGDS:
			code, err := xdr.ReadInt32(r)
			if err != nil {
				return v, fmt.Errorf("status: read gds code: %w", err)
			}
			gdsCode = code
			if code != 0 {
				if !seen[code] {
					seen[code] = true
					v.GDSCodes = append(v.GDSCodes, code)
				}
				v.Message += templateFor(code)
				numArg = 0
			}

		case argNumber:
			num, err := xdr.ReadInt32(r)
			if err != nil {
				return v, fmt.Errorf("status: read number: %w", err)
			}
			if gdsCode == sqlCodeGDS {
				v.SQLCode = num
			}
			numArg++
			v.Message = substitute(v.Message, numArg, strconv.Itoa(int(num)))

		case argString, argInterpreted:
			s, err := xdr.ReadString(r)
			if err != nil {
				return v, fmt.Errorf("status: read string arg: %w", err)
			}
			numArg++
			v.Message = substitute(v.Message, numArg, s)

		case argSQLState:
			s, err := xdr.ReadString(r)
			if err != nil {
				return v, fmt.Errorf("status: read sql state: %w", err)
			}
			v.SQLState = s
			numArg++
			v.Message = substitute(v.Message, numArg, s)

		case argCString:
			s, err := xdr.ReadString(r)
			if err != nil {
				return v, fmt.Errorf("status: read cstring arg: %w", err)
			}
			numArg++
			v.Message = substitute(v.Message, numArg, s)

		default:
			return v, fmt.Errorf("status: unknown status vector tag %d", tag)
		}
	}

	return v, nil
}

func templateFor(gdsCode int32) string {
	if msg, ok := messages[gdsCode]; ok {
		return msg
	}
	return "@1"
}

func substitute(message string, argNum int, value string) string {
	return strings.ReplaceAll(message, "@"+strconv.Itoa(argNum), value)
}
