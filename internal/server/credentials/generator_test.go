package credentials

import (
	"errors"
	"strings"
	"testing"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordGenerator_Coverage(t *testing.T) {
	g := NewPasswordGenerator()
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		p, err := g.Generate(12)
		require.NoError(t, err)
		require.Len(t, p, 12)
		for _, r := range p {
			require.True(t, strings.ContainsRune(Alphabet, r), "unexpected char %q in %q", r, p)
		}
		seen[p] = struct{}{}
	}

	assert.Len(t, seen, 1000)
}

func TestPasswordGenerator_UsesWholeAlphabet(t *testing.T) {
	g := NewPasswordGenerator()
	used := make(map[rune]struct{})

	// 20k draws from 70 symbols: missing one has probability ~ 70*e^-285.
	for i := 0; i < 200; i++ {
		p, err := g.Generate(100)
		require.NoError(t, err)
		for _, r := range p {
			used[r] = struct{}{}
		}
	}
	assert.Len(t, used, len(Alphabet))
}

func TestPasswordGenerator_InvalidLength(t *testing.T) {
	g := NewPasswordGenerator()
	for _, n := range []int{0, -1} {
		_, err := g.Generate(n)
		require.ErrorIs(t, err, common.ErrInvalidArgument)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestPasswordGenerator_RandomSourceFailure(t *testing.T) {
	g := &PasswordGenerator{random: failingReader{}}
	_, err := g.Generate(12)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}
