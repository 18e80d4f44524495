package radix

// Predefined numeral systems. Each string lists the digits in ascending order.
const (
	Decimal     = "0123456789"
	Binary      = "01"
	BinaryEmoji = "👎👍"
	Unary       = "|"
	HexLower    = "0123456789abcdef"
	HexUpper    = "0123456789ABCDEF"
	Octal       = "01234567"

	// Base62 follows https://en.wikipedia.org/wiki/Base62
	Base62 = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// Base64 follows the digit order of RFC 4648 (https://en.wikipedia.org/wiki/Base64).
	Base64 = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
)

// Systems returns the predefined numeral systems keyed by name.
// The map is freshly allocated on every call.
func Systems() map[string]string {
	return map[string]string{
		"decimal":      Decimal,
		"binary":       Binary,
		"binary_emoji": BinaryEmoji,
		"unary":        Unary,
		"hex_lower":    HexLower,
		"hex_upper":    HexUpper,
		"octal":        Octal,
		"base62":       Base62,
		"base64":       Base64,
	}
}
