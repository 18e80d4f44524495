package radix

import (
	"errors"
	"fmt"
)

// Errors returned by this package. Callers should classify failures with
// errors.Is, since most errors are wrapped with context about the input.
var (
	// ErrInvalidAlphabet is returned when a numeral system is empty or
	// contains the same symbol twice.
	ErrInvalidAlphabet = errors.New("invalid numeral system")

	// ErrInvalidDigit is returned when decode input contains a symbol
	// that is not part of the numeral system.
	ErrInvalidDigit = errors.New("invalid digit")

	// ErrEmptyInput is returned when there are no digits to decode in a
	// system with base 2 or more.
	ErrEmptyInput = errors.New("empty input")

	// ErrOutOfRange is returned when a value falls outside
	// [MinSafeInteger, MaxSafeInteger].
	ErrOutOfRange = errors.New("outside safe integer range")
)

// DigitError reports a symbol that is not a digit of the numeral system.
type DigitError struct {
	Symbol   rune
	Position int // rune offset within the decoded text
}

// Error satisfies the error interface.
func (e *DigitError) Error() string {
	return fmt.Sprintf("%s %q at position %d", ErrInvalidDigit, e.Symbol, e.Position)
}

// Unwrap returns ErrInvalidDigit.
func (e *DigitError) Unwrap() error {
	return ErrInvalidDigit
}
