package fbclient

import "github.com/veyronfb/fbwire/internal/protocol/charset"

// ColumnDescriptor is supplied by the external collaborator that owns
// result-set metadata: it exposes a fixed io_length (negative
// meaning variable-length, with a leading length word on the wire) and a
// decoder from raw column bytes to a typed value.
type ColumnDescriptor interface {
	IOLength() int
	DecodeValue(raw []byte) (any, error)
}

// FixedColumn is a ColumnDescriptor for a column whose wire width never
// varies (e.g. integers, dates): DecodeValue defaults to returning the raw
// bytes unless Decode is set.
type FixedColumn struct {
	Length int
	Decode func([]byte) (any, error)
}

func (c FixedColumn) IOLength() int { return c.Length }

func (c FixedColumn) DecodeValue(raw []byte) (any, error) {
	if c.Decode != nil {
		return c.Decode(raw)
	}
	return raw, nil
}

// VaryingColumn is a ColumnDescriptor for a variable-length column (text,
// varchar, blob id): its wire width is carried by a leading length word,
// signaled to the decoder via a negative IOLength.
type VaryingColumn struct {
	Decode func([]byte) (any, error)
}

func (c VaryingColumn) IOLength() int { return -1 }

func (c VaryingColumn) DecodeValue(raw []byte) (any, error) {
	if c.Decode != nil {
		return c.Decode(raw)
	}
	return raw, nil
}

// NewTextColumn returns a VaryingColumn that decodes its raw bytes through
// cs into a UTF-8 Go string, the mirror of
// blr.Encode's charset-aware param.Text encoding on the way out.
func NewTextColumn(cs *charset.Charset) VaryingColumn {
	return VaryingColumn{
		Decode: func(raw []byte) (any, error) {
			return cs.DecodeText(raw)
		},
	}
}
