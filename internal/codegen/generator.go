package codegen

import (
	"crypto/rand"
	"math/big"
)

const (
	// DefaultLength gives 62^6 (about 5.7e10) possible codes
	DefaultLength = 6

	// Alphabet is the set of characters a generated code is drawn from
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// RandomSource supplies uniformly distributed integers in [0, n).
// Implementations must be safe for concurrent use.
type RandomSource interface {
	Intn(n int) int
}

// Generator produces candidate short codes. It makes no uniqueness
// guarantee; the store rejects collisions and the caller retries.
type Generator struct {
	source RandomSource
}

// New creates a generator backed by crypto/rand
func New() *Generator {
	return &Generator{source: cryptoSource{}}
}

// NewWithSource creates a generator that draws from the given source
func NewWithSource(source RandomSource) *Generator {
	return &Generator{source: source}
}

// Generate returns length characters drawn independently from Alphabet.
// A non-positive length falls back to DefaultLength.
func (g *Generator) Generate(length int) string {
	if length <= 0 {
		length = DefaultLength
	}

	code := make([]byte, length)
	for i := range code {
		code[i] = Alphabet[g.source.Intn(len(Alphabet))]
	}

	return string(code)
}

// cryptoSource reads from the operating system CSPRNG
type cryptoSource struct{}

func (cryptoSource) Intn(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// Unreachable: since Go 1.24 rand.Reader never returns an error and
		// n is always positive here
		panic("codegen: crypto/rand failed: " + err.Error())
	}
	return int(v.Int64())
}
