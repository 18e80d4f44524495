// Package radix converts signed integers to and from their textual
// representation in an arbitrary numeral system.
//
// A numeral system is an ordered set of unique symbols. The number of
// symbols is the base and the first symbol is the zero digit, so "01" is
// ordinary binary and "0123456789" is decimal. Symbols are Unicode scalar
// values, which means multi-byte symbols such as "👎👍" work as digits.
// Base 1 is supported as a unary system in which n is written as n copies of
// the only symbol.
//
// Values are restricted to the safe integer range [MinSafeInteger,
// MaxSafeInteger]. Anything outside of it is rejected with ErrOutOfRange
// instead of being silently truncated.
//
// Example usage:
//
//	conv, err := radix.New(radix.HexLower)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	s, err := conv.Encode(-255) // "-ff"
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	n, err := conv.Decode("+00ff") // 255
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Decode looks at the sign before anything else: a leading '+' or '-' is
// always taken as a sign, even when the numeral system uses it as a digit.
// With the system "-+" the text "+++-+" is read as +("++-+") = 13.
package radix

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Bounds of the integers that encode and decode accept. The range is
// symmetric, so every negative value has a positive counterpart.
const (
	MaxSafeInteger = 1<<53 - 1
	MinSafeInteger = -MaxSafeInteger
)

// MaxUnaryLength is the largest magnitude a unary system encodes. Each unit
// is one symbol in the output.
const MaxUnaryLength = 1 << 24

// Converter encodes and decodes integers using a fixed numeral system.
// A Converter is immutable and safe for concurrent use.
type Converter struct {
	digitArray []rune
	valueMap   map[rune]int
}

// New creates a Converter from the digits of a numeral system given in
// ascending order. The base is the number of runes in digits.
func New(digits string) (*Converter, error) {
	if !utf8.ValidString(digits) {
		return nil, fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidAlphabet, digits)
	}
	return NewFromSymbols([]rune(digits))
}

// NewFromSymbols creates a Converter from an explicit symbol sequence.
// The slice is copied.
func NewFromSymbols(symbols []rune) (*Converter, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no digits", ErrInvalidAlphabet)
	}

	valueMap := make(map[rune]int, len(symbols))
	for i, s := range symbols {
		if !utf8.ValidRune(s) {
			return nil, fmt.Errorf("%w: %U at position %d is not a Unicode scalar value", ErrInvalidAlphabet, s, i)
		}
		valueMap[s] = i
	}
	if len(valueMap) != len(symbols) {
		return nil, fmt.Errorf("%w: [%s] repeats a digit", ErrInvalidAlphabet, string(symbols))
	}

	digitArray := make([]rune, len(symbols))
	copy(digitArray, symbols)

	return &Converter{
		digitArray: digitArray,
		valueMap:   valueMap,
	}, nil
}

// MustNew is like New but panics if digits is not a valid numeral system.
func MustNew(digits string) *Converter {
	c, err := New(digits)
	if err != nil {
		panic(err)
	}
	return c
}

// Base returns the number of digits in the numeral system.
func (c *Converter) Base() int {
	return len(c.digitArray)
}

// Digits returns a copy of the digits in ascending order.
func (c *Converter) Digits() []rune {
	digits := make([]rune, len(c.digitArray))
	copy(digits, c.digitArray)
	return digits
}

// String returns the digits of the numeral system as text.
func (c *Converter) String() string {
	return string(c.digitArray)
}

// Encode writes value in the numeral system. Negative values are prefixed
// with '-'; non-negative values never carry a sign. Zero is the zero digit,
// or the empty string in a unary system. Unary magnitudes above
// MaxUnaryLength fail with ErrOutOfRange.
func (c *Converter) Encode(value int64) (string, error) {
	if err := checkSafe(value); err != nil {
		return "", err
	}
	negative := value < 0
	if negative {
		value = -value
	}
	s, err := c.encodeNatural(uint64(value))
	if err != nil {
		return "", err
	}
	if negative {
		return "-" + s, nil
	}
	return s, nil
}

// EncodeFloat is like Encode for callers holding a float64. It fails with
// ErrOutOfRange unless f is an integer inside the safe range. Negative zero
// is encoded as zero.
func (c *Converter) EncodeFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f < MinSafeInteger || f > MaxSafeInteger {
		return "", fmt.Errorf("%w: %v", ErrOutOfRange, f)
	}
	return c.Encode(int64(f))
}

// Decode parses text written in the numeral system. The first symbol may be
// a sign; it is consumed as a sign even if the system uses it as a digit, and
// only that first symbol is treated this way. Leading zero digits are
// accepted.
func (c *Converter) Decode(text string) (int64, error) {
	if !utf8.ValidString(text) {
		return 0, fmt.Errorf("decode %q: %w: text is not valid UTF-8", text, ErrInvalidDigit)
	}

	symbols := []rune(text)
	negative := false
	offset := 0
	if len(symbols) > 0 && (symbols[0] == '+' || symbols[0] == '-') {
		negative = symbols[0] == '-'
		symbols = symbols[1:]
		offset = 1
	}

	n, err := c.decodeNatural(symbols, offset)
	if err != nil {
		return 0, fmt.Errorf("decode %q: %w", text, err)
	}

	value := int64(n)
	if negative {
		// int64 has no negative zero.
		value = -value
	}
	if err := checkSafe(value); err != nil {
		return 0, fmt.Errorf("decode %q: %w", text, err)
	}
	return value, nil
}

// Encode is equivalent to creating a Converter for digits and calling Encode.
func Encode(digits string, value int64) (string, error) {
	c, err := New(digits)
	if err != nil {
		return "", err
	}
	return c.Encode(value)
}

// Decode is equivalent to creating a Converter for digits and calling Decode.
func Decode(digits string, text string) (int64, error) {
	c, err := New(digits)
	if err != nil {
		return 0, err
	}
	return c.Decode(text)
}

func checkSafe(value int64) error {
	if value < MinSafeInteger || value > MaxSafeInteger {
		return fmt.Errorf("%w: %d", ErrOutOfRange, value)
	}
	return nil
}
