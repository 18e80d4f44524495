package tinkradix

import (
	"testing"

	"github.com/vdparikh/radix"
)

// BenchmarkEncode benchmarks token creation for various numeral systems
func BenchmarkEncode(b *testing.B) {
	benchmarks := []struct {
		name   string
		digits string
	}{
		{"Binary", radix.Binary},
		{"Decimal", radix.Decimal},
		{"Base62", radix.Base62},
		{"Emoji", radix.BinaryEmoji},
	}

	for _, bm := range benchmarks {
		codec := newCodec(b, bm.digits, "benchmark-tweak")
		b.Run(bm.name, func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := codec.Encode(int64(i)); err != nil {
					b.Fatalf("Encode failed: %v", err)
				}
			}
		})
	}
}

// BenchmarkDecode benchmarks token parsing
func BenchmarkDecode(b *testing.B) {
	codec := newCodec(b, radix.Base62, "benchmark-tweak")
	token, err := codec.Encode(1234567890)
	if err != nil {
		b.Fatalf("Encode failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := codec.Decode(token); err != nil {
			b.Fatalf("Decode failed: %v", err)
		}
	}
}

// BenchmarkConcurrent benchmarks concurrent token creation
func BenchmarkConcurrent(b *testing.B) {
	codec := newCodec(b, radix.Base62, "benchmark-tweak")

	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			if _, err := codec.Encode(i); err != nil {
				b.Fatalf("Encode failed: %v", err)
			}
			i++
		}
	})
}
