// Package subtle provides the low-level keyed permutation behind opaque
// numeral tokens. It works on digit vectors and raw keys; most users should
// go through the tinkradix package instead.
package subtle

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
)

const (
	// MaxRadix is the largest radix accepted by Feistel.
	MaxRadix = 1 << 16

	// MaxLength bounds the digit vector length to keep round costs sane.
	MaxLength = 100000

	rounds    = 10
	minDomain = 1000
)

// Feistel is a keyed permutation of fixed-length digit vectors, shaped
// after NIST SP 800-38G FF1: ten alternating Feistel rounds whose round
// function is an AES CBC-MAC over the parameters, the tweak, the round
// number and the current half.
//
// Feistel is safe for concurrent use.
type Feistel struct {
	block cipher.Block
}

// NewFeistel creates a Feistel permutation keyed with an AES-128, AES-192
// or AES-256 key.
func NewFeistel(key []byte) (*Feistel, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid key size: %d bytes (must be 16, 24, or 32)", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	return &Feistel{block: block}, nil
}

// Encrypt permutes digits, a vector of values in [0, radix). The result has
// the same length and radix.
func (f *Feistel) Encrypt(digits []int, radix int, tweak []byte) ([]int, error) {
	if err := validate(digits, radix); err != nil {
		return nil, err
	}

	u := len(digits) / 2
	a := append([]int(nil), digits[:u]...)
	b := append([]int(nil), digits[u:]...)

	for i := 0; i < rounds; i++ {
		c := f.round(i, tweak, b, len(a), radix)
		for j := range a {
			a[j] = (a[j] + c[j]) % radix
		}
		a, b = b, a
	}

	return join(a, b), nil
}

// Decrypt is the inverse of Encrypt for the same radix and tweak.
func (f *Feistel) Decrypt(digits []int, radix int, tweak []byte) ([]int, error) {
	if err := validate(digits, radix); err != nil {
		return nil, err
	}

	u := len(digits) / 2
	a := append([]int(nil), digits[:u]...)
	b := append([]int(nil), digits[u:]...)

	for i := rounds - 1; i >= 0; i-- {
		c := f.round(i, tweak, a, len(b), radix)
		for j := range b {
			b[j] = (b[j] - c[j] + radix) % radix
		}
		a, b = b, a
	}

	return join(a, b), nil
}

// round computes outLen pseudorandom digits from half.
func (f *Feistel) round(i int, tweak []byte, half []int, outLen int, radix int) []int {
	halfBytes := numradixBytes(half, radix)

	// P: fixed parameter block.
	var p [aes.BlockSize]byte
	p[0], p[1], p[2] = 1, 2, 1
	p[3], p[4], p[5] = byte(radix>>16), byte(radix>>8), byte(radix)
	p[6] = rounds
	p[7] = byte(outLen)
	binary.BigEndian.PutUint32(p[8:], uint32(len(half)+outLen))
	binary.BigEndian.PutUint32(p[12:], uint32(len(tweak)))

	// Q: tweak || zero padding || round || half, padded to a block multiple.
	pad := (aes.BlockSize - (len(tweak)+1+len(halfBytes))%aes.BlockSize) % aes.BlockSize
	q := make([]byte, 0, len(tweak)+pad+1+len(halfBytes))
	q = append(q, tweak...)
	q = append(q, make([]byte, pad)...)
	q = append(q, byte(i))
	q = append(q, halfBytes...)

	r := f.cbcMAC(append(p[:], q...))

	// S: r || E(r ^ 1) || E(r ^ 2) ... truncated to d bytes.
	outBytes := (outLen*bitLength(radix) + 7) / 8
	d := 4*((outBytes+3)/4) + 4
	s := make([]byte, 0, d+aes.BlockSize)
	s = append(s, r...)
	for j := 1; len(s) < d; j++ {
		var block [aes.BlockSize]byte
		copy(block[:], r)
		binary.BigEndian.PutUint64(block[8:], binary.BigEndian.Uint64(r[8:])^uint64(j))
		f.block.Encrypt(block[:], block[:])
		s = append(s, block[:]...)
	}

	y := new(big.Int).SetBytes(s[:d])
	modulus := new(big.Int).Exp(big.NewInt(int64(radix)), big.NewInt(int64(outLen)), nil)
	y.Mod(y, modulus)

	out, err := StrRadix(y, radix, outLen)
	if err != nil {
		// y < radix^outLen after the reduction above.
		panic(err)
	}
	return out
}

// cbcMAC returns the last block of the AES-CBC encryption of msg under a
// zero IV. len(msg) must be a multiple of the block size.
func (f *Feistel) cbcMAC(msg []byte) []byte {
	out := make([]byte, len(msg))
	iv := make([]byte, aes.BlockSize)
	cipher.NewCBCEncrypter(f.block, iv).CryptBlocks(out, msg)
	return out[len(out)-aes.BlockSize:]
}

func validate(digits []int, radix int) error {
	if radix < 2 || radix > MaxRadix {
		return fmt.Errorf("radix %d out of range [2, %d]", radix, MaxRadix)
	}
	n := len(digits)
	if n < 2 {
		return fmt.Errorf("input too short: %d digits (minimum 2)", n)
	}
	if n > MaxLength {
		return fmt.Errorf("input too long: %d digits (maximum %d)", n, MaxLength)
	}
	if math.Pow(float64(radix), float64(n)) < minDomain {
		return fmt.Errorf("domain size too small: radix=%d, length=%d (minimum %d required)", radix, n, minDomain)
	}
	return checkDigits(digits, radix)
}

func join(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
