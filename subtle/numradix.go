package subtle

import (
	"fmt"
	"math/big"
)

// NumRadix interprets digits (most significant first) as a number in the
// given radix.
func NumRadix(digits []int, radix int) (*big.Int, error) {
	if err := checkDigits(digits, radix); err != nil {
		return nil, err
	}
	return numradix(digits, radix), nil
}

func numradix(digits []int, radix int) *big.Int {
	result := big.NewInt(0)
	radixBig := big.NewInt(int64(radix))
	for _, d := range digits {
		result.Mul(result, radixBig)
		result.Add(result, big.NewInt(int64(d)))
	}
	return result
}

func checkDigits(digits []int, radix int) error {
	for i, d := range digits {
		if d < 0 || d >= radix {
			return fmt.Errorf("digit %d at position %d out of range for radix %d", d, i, radix)
		}
	}
	return nil
}

// StrRadix writes x as exactly length digits in the given radix, most
// significant first. It fails if x is negative or needs more than length
// digits.
func StrRadix(x *big.Int, radix int, length int) ([]int, error) {
	if x.Sign() < 0 {
		return nil, fmt.Errorf("cannot represent negative value %s", x)
	}

	result := make([]int, length)
	radixBig := big.NewInt(int64(radix))
	temp := new(big.Int).Set(x)
	var remainder big.Int

	for i := length - 1; i >= 0; i-- {
		temp.DivMod(temp, radixBig, &remainder)
		result[i] = int(remainder.Int64())
	}
	if temp.Sign() != 0 {
		return nil, fmt.Errorf("value %s does not fit in %d digits of radix %d", x, length, radix)
	}

	return result, nil
}

// Width returns the smallest number of radix digits that can represent
// every value in [0, limit].
func Width(limit *big.Int, radix int) int {
	radixBig := big.NewInt(int64(radix))
	capacity := big.NewInt(1)
	width := 0
	for capacity.Cmp(limit) <= 0 {
		capacity.Mul(capacity, radixBig)
		width++
	}
	return width
}

// numradixBytes encodes digits as a big-endian integer padded to the byte
// length needed for any vector of the same length and radix.
func numradixBytes(digits []int, radix int) []byte {
	raw := numradix(digits, radix).Bytes()

	minBytes := (len(digits)*bitLength(radix) + 7) / 8
	if len(raw) < minBytes {
		padded := make([]byte, minBytes)
		copy(padded[minBytes-len(raw):], raw)
		return padded
	}
	return raw
}

// bitLength returns the number of bits needed to represent radix-1.
func bitLength(radix int) int {
	if radix <= 1 {
		return 1
	}
	bits := 0
	for n := radix - 1; n > 0; n >>= 1 {
		bits++
	}
	return bits
}
