package radix

// Codec is a reversible mapping between safe integers and text.
//
// *Converter is the plain positional Codec. The tinkradix package provides a
// keyed Codec whose output is opaque but uses the same symbols.
type Codec interface {
	// Encode returns the text for value.
	Encode(value int64) (string, error)

	// Decode is the inverse of Encode.
	Decode(text string) (int64, error)
}

var _ Codec = (*Converter)(nil)
