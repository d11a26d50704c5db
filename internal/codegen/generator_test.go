package codegen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceSource replays a fixed list of values, wrapping around
type sequenceSource struct {
	mu     sync.Mutex
	values []int
	next   int
}

func (s *sequenceSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

func TestGenerate_DefaultLength(t *testing.T) {
	code := New().Generate(DefaultLength)

	assert.Len(t, code, 6)
	for _, char := range code {
		assert.True(t, strings.ContainsRune(Alphabet, char), "invalid character %c", char)
	}
}

func TestGenerate_Lengths(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		expected int
	}{
		{"length 1", 1, 1},
		{"length 6", 6, 6},
		{"length 12", 12, 12},
		{"zero falls back to default", 0, DefaultLength},
		{"negative falls back to default", -3, DefaultLength},
	}

	gen := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, gen.Generate(tt.length), tt.expected)
		})
	}
}

func TestGenerate_DeterministicSource(t *testing.T) {
	// Indexes into Alphabet: A=0, Z=25, a=26, z=51, 0=52, 9=61
	source := &sequenceSource{values: []int{0, 25, 26, 51, 52, 61}}
	gen := NewWithSource(source)

	assert.Equal(t, "AZaz09", gen.Generate(6))
	assert.Equal(t, "AZaz09", gen.Generate(6))
}

func TestAlphabet(t *testing.T) {
	require.Len(t, Alphabet, 62)

	seen := make(map[rune]bool)
	for _, char := range Alphabet {
		assert.False(t, seen[char], "duplicate character %c", char)
		seen[char] = true
	}
}

func TestGenerate_CoversAlphabet(t *testing.T) {
	gen := New()
	seen := make(map[rune]bool)

	// 2000 codes of 6 characters: missing any of 62 symbols is vanishingly unlikely
	for i := 0; i < 2000; i++ {
		for _, char := range gen.Generate(DefaultLength) {
			seen[char] = true
		}
	}

	assert.Len(t, seen, len(Alphabet))
}

func TestGenerate_Concurrent(t *testing.T) {
	gen := New()

	var wg sync.WaitGroup
	codes := make(chan string, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- gen.Generate(DefaultLength)
		}()
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Len(t, code, DefaultLength)
	}
}

func TestCryptoSource_StaysInRange(t *testing.T) {
	src := cryptoSource{}

	for _, n := range []int{1, 2, len(Alphabet)} {
		for i := 0; i < 500; i++ {
			v := src.Intn(n)
			assert.GreaterOrEqual(t, v, 0)
			assert.Less(t, v, n)
		}
	}
}
