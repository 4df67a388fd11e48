package base58

import (
	"fmt"

	"github.com/mr-tron/base58"
)

func Encode(data []byte) string {
	return base58.Encode(data)
}

func DecodeFromString(s string) ([32]byte, error) {
	var out [32]byte
	decoded, err := base58.Decode(s)
	if err != nil {
		return out, err
	}
	if len(decoded) != 32 {
		return out, fmt.Errorf("decoded length %d, expected 32", len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

// MustDecodeFromString is for well-known addresses baked in at compile time.
func MustDecodeFromString(s string) [32]byte {
	out, err := DecodeFromString(s)
	if err != nil {
		panic(err)
	}
	return out
}
