package service

import "crypto/rand"

// Base62 alphabet (0-9, a-z, A-Z).
const codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DefaultCodeLength matches the nanoid-style 6-character codes the
// public namespace was sized for.
const DefaultCodeLength = 6

// RandomCodeGenerator draws codes from crypto/rand over the base62
// alphabet.
type RandomCodeGenerator struct {
	length int
}

func NewRandomCodeGenerator(length int) *RandomCodeGenerator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &RandomCodeGenerator{length: length}
}

func (g *RandomCodeGenerator) Generate() (string, error) {
	// Rejection sampling: 256 is not a multiple of 62, so bytes at or
	// above the largest multiple are redrawn to keep the draw uniform.
	const limit = byte(len(codeAlphabet) * (256 / len(codeAlphabet)))

	code := make([]byte, 0, g.length)
	buf := make([]byte, g.length)
	for len(code) < g.length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == g.length {
				break
			}
		}
	}
	return string(code), nil
}
