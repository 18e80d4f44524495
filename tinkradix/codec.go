package tinkradix

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/tink/go/keyset"
	"github.com/vdparikh/radix"
	"github.com/vdparikh/radix/subtle"
)

var (
	// ErrUnsupportedSystem is returned for numeral systems the token codec
	// cannot permute: unary systems and systems above subtle.MaxRadix digits.
	ErrUnsupportedSystem = errors.New("numeral system not supported for tokens")

	// ErrTokenLength is returned when a token does not have the fixed width
	// of the codec.
	ErrTokenLength = errors.New("invalid token length")
)

// tokenLimit is the largest shifted value: MaxSafeInteger - MinSafeInteger.
var tokenLimit = big.NewInt(2 * radix.MaxSafeInteger)

// TokenCodec maps safe integers to fixed-width opaque tokens written with the
// symbols of a numeral system, and back. Tokens never carry a sign.
//
// A TokenCodec is safe for concurrent use.
type TokenCodec struct {
	feistel *subtle.Feistel
	tweak   []byte
	conv    *radix.Converter
	width   int
}

// New creates a token codec from a Tink keyset handle. The handle's primary
// key must be a token key; register the KeyManager with Register first.
//
// Example:
//
//	if err := tinkradix.Register(); err != nil {
//	    return err
//	}
//	handle, err := keyset.NewHandle(tinkradix.KeyTemplate())
//	if err != nil {
//	    return err
//	}
//	codec, err := tinkradix.New(handle, []byte("orders.v1"), radix.MustNew(radix.Base62))
//	if err != nil {
//	    return err
//	}
//	token, err := codec.Encode(42)
func New(handle *keyset.Handle, tweak []byte, conv *radix.Converter) (radix.Codec, error) {
	if handle == nil {
		return nil, fmt.Errorf("keyset handle cannot be nil")
	}

	primitives, err := handle.Primitives()
	if err != nil {
		return nil, fmt.Errorf("failed to get primitives from handle: %w", err)
	}
	primary := primitives.Primary
	if primary == nil {
		return nil, fmt.Errorf("no primary key found in keyset")
	}

	f, ok := primary.Primitive.(*subtle.Feistel)
	if !ok {
		return nil, fmt.Errorf("primary key %d is not a token key (got %T)", primary.KeyID, primary.Primitive)
	}
	return NewTokenCodec(f, tweak, conv)
}

// NewTokenCodec creates a token codec from a keyed permutation, a public
// tweak and the numeral system tokens are written in.
func NewTokenCodec(f *subtle.Feistel, tweak []byte, conv *radix.Converter) (*TokenCodec, error) {
	if f == nil {
		return nil, fmt.Errorf("permutation cannot be nil")
	}
	if conv == nil {
		return nil, fmt.Errorf("converter cannot be nil")
	}
	base := conv.Base()
	if base < 2 || base > subtle.MaxRadix {
		return nil, fmt.Errorf("%w: base %d", ErrUnsupportedSystem, base)
	}

	return &TokenCodec{
		feistel: f,
		tweak:   append([]byte(nil), tweak...),
		conv:    conv,
		width:   subtle.Width(tokenLimit, base),
	}, nil
}

// Width returns the number of symbols in every token.
func (c *TokenCodec) Width() int {
	return c.width
}

// Encode returns the token for value.
func (c *TokenCodec) Encode(value int64) (string, error) {
	if value < radix.MinSafeInteger || value > radix.MaxSafeInteger {
		return "", fmt.Errorf("%w: %d", radix.ErrOutOfRange, value)
	}

	shifted := big.NewInt(value + radix.MaxSafeInteger)
	digits, err := subtle.StrRadix(shifted, c.conv.Base(), c.width)
	if err != nil {
		return "", fmt.Errorf("failed to encode %d: %w", value, err)
	}

	permuted, err := c.feistel.Encrypt(digits, c.conv.Base(), c.tweak)
	if err != nil {
		return "", fmt.Errorf("failed to encode %d: %w", value, err)
	}
	return c.conv.DigitsToString(permuted)
}

// Decode returns the value a token was created from.
func (c *TokenCodec) Decode(token string) (int64, error) {
	digits, err := c.conv.StringToDigits(token)
	if err != nil {
		return 0, fmt.Errorf("decode token %q: %w", token, err)
	}
	if len(digits) != c.width {
		return 0, fmt.Errorf("decode token %q: %w: got %d symbols, want %d", token, ErrTokenLength, len(digits), c.width)
	}

	plain, err := c.feistel.Decrypt(digits, c.conv.Base(), c.tweak)
	if err != nil {
		return 0, fmt.Errorf("decode token %q: %w", token, err)
	}
	shifted, err := subtle.NumRadix(plain, c.conv.Base())
	if err != nil {
		return 0, fmt.Errorf("decode token %q: %w", token, err)
	}
	if shifted.Cmp(tokenLimit) > 0 {
		return 0, fmt.Errorf("decode token %q: %w", token, radix.ErrOutOfRange)
	}
	return shifted.Int64() - radix.MaxSafeInteger, nil
}

var _ radix.Codec = (*TokenCodec)(nil)
