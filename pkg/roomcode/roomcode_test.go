package roomcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		assert.Len(t, code, Length)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected symbol %q in code %q", r, code)
		}
	}
}

func TestGenerateExcludesAmbiguousSymbols(t *testing.T) {
	for _, forbidden := range []string{"0", "O", "I", "1"} {
		assert.NotContains(t, Alphabet, forbidden)
	}
}

func TestGenerateVariesBetweenCalls(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		seen[Generate()] = struct{}{}
	}

	// collisions are possible but 50 identical draws are not
	assert.Greater(t, len(seen), 1)
}
