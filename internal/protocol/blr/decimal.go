package blr

import (
	"bytes"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/veyronfb/fbwire/internal/protocol/param"
)

// encodeDecimal writes the BLR fixed-point branch: tag 16, a biased
// exponent byte (256 added when the true exponent is negative), and an
// 8-byte signed mantissa.
func encodeDecimal(blrBuf, valBuf *bytes.Buffer, d param.Decimal) error {
	dd := decimal.Decimal(d)
	exp := dd.Exponent()

	blrBuf.WriteByte(tagFixed)
	if exp < 0 {
		blrBuf.WriteByte(byte(int(exp) + 256))
	} else {
		blrBuf.WriteByte(byte(exp))
	}

	mantissa := dd.Coefficient()
	return writeInt64(valBuf, mantissa)
}

// writeInt64 writes v as an 8-byte big-endian two's complement integer,
// the wire shape of a BLR fixed-point mantissa.
func writeInt64(buf *bytes.Buffer, v *big.Int) error {
	var out [8]byte
	u := uint64(v.Int64())
	for i := 7; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	_, err := buf.Write(out[:])
	return err
}

// decimalFromFloat converts a float64 into the same fixed-point shape a
// literal SQL decimal uses, for the blr_double/blr_inf branch's non-inf
// case.
func decimalFromFloat(f float64) param.Decimal {
	return param.Decimal(decimal.NewFromFloat(f))
}

// timeOf unwraps the blr-domain date/time marker types back to time.Time.
func timeOf(v param.Value) time.Time {
	switch t := v.(type) {
	case param.Date:
		return time.Time(t)
	case param.Time:
		return time.Time(t)
	case param.Timestamp:
		return time.Time(t)
	default:
		return time.Time{}
	}
}
