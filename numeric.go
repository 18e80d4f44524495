package radix

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// StringToDigits converts text to the digit values of its symbols, most
// significant first. No sign handling is done: '+' and '-' are looked up like
// any other symbol.
func (c *Converter) StringToDigits(text string) ([]int, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidDigit)
	}
	return c.symbolsToDigits([]rune(text), 0)
}

// DigitsToString converts digit values back to their symbols. Every value
// must be in [0, Base()).
func (c *Converter) DigitsToString(digits []int) (string, error) {
	var b strings.Builder
	for i, d := range digits {
		if d < 0 || d >= len(c.digitArray) {
			return "", fmt.Errorf("%w: value %d at position %d is not below base %d", ErrInvalidDigit, d, i, len(c.digitArray))
		}
		b.WriteRune(c.digitArray[d])
	}
	return b.String(), nil
}

// symbolsToDigits looks up every symbol. offset is added to reported
// positions so errors point into the caller's original text.
func (c *Converter) symbolsToDigits(symbols []rune, offset int) ([]int, error) {
	result := make([]int, len(symbols))
	for i, s := range symbols {
		v, ok := c.valueMap[s]
		if !ok {
			return nil, &DigitError{Symbol: s, Position: offset + i}
		}
		result[i] = v
	}
	return result, nil
}

// encodeNatural writes the magnitude n, most significant digit first.
func (c *Converter) encodeNatural(n uint64) (string, error) {
	base := uint64(len(c.digitArray))

	// Positional division by one never terminates.
	if base == 1 {
		if n > MaxUnaryLength {
			return "", fmt.Errorf("%w: unary output of %d symbols is too long", ErrOutOfRange, n)
		}
		return strings.Repeat(string(c.digitArray[0]), int(n)), nil
	}

	var values []uint64
	for n >= base {
		values = append(values, n%base)
		n /= base
	}
	values = append(values, n)

	var b strings.Builder
	for i := len(values) - 1; i >= 0; i-- {
		b.WriteRune(c.digitArray[values[i]])
	}
	return b.String(), nil
}

// decodeNatural reads an unsigned magnitude. Every symbol is validated before
// any arithmetic so an unknown symbol wins over an overflow.
func (c *Converter) decodeNatural(symbols []rune, offset int) (uint64, error) {
	if len(c.digitArray) == 1 {
		zero := c.digitArray[0]
		for i, s := range symbols {
			if s != zero {
				return 0, &DigitError{Symbol: s, Position: offset + i}
			}
		}
		n := uint64(len(symbols))
		if n > MaxSafeInteger {
			return 0, fmt.Errorf("%w: %d repetitions", ErrOutOfRange, n)
		}
		return n, nil
	}

	if len(symbols) == 0 {
		return 0, fmt.Errorf("%w: base %d needs at least one digit", ErrEmptyInput, len(c.digitArray))
	}

	digits, err := c.symbolsToDigits(symbols, offset)
	if err != nil {
		return 0, err
	}
	return c.accumulate(digits)
}

// accumulate folds digit values into a magnitude and fails as soon as the
// next step would leave the safe range. The accumulator never wraps.
func (c *Converter) accumulate(digits []int) (uint64, error) {
	base := uint64(len(c.digitArray))
	var n uint64
	for _, d := range digits {
		if n > (MaxSafeInteger-uint64(d))/base {
			return 0, fmt.Errorf("%w: %d digits in base %d", ErrOutOfRange, len(digits), base)
		}
		n = n*base + uint64(d)
	}
	return n, nil
}
