package ai

import (
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fragments(parts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range parts {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func TestCollect(t *testing.T) {
	var partials []string
	text, err := Collect(fragments("PREFIX ", "dcat: ", "<x>"), func(p string) {
		partials = append(partials, p)
	})
	require.NoError(t, err)
	assert.Equal(t, "PREFIX dcat: <x>", text)
	assert.Equal(t, []string{"PREFIX ", "PREFIX dcat: ", "PREFIX dcat: <x>"}, partials)
}

func TestCollect_Error(t *testing.T) {
	boom := errors.New("connection reset")
	seq := func(yield func(string, error) bool) {
		if !yield("partial", nil) {
			return
		}
		yield("", boom)
	}

	text, err := Collect(seq, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", text)
}

func TestOnce(t *testing.T) {
	seq := Once(fragments("a", "b"))

	first, err := Collect(seq, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab", first)

	_, err = Collect(seq, nil)
	assert.ErrorIs(t, err, ErrStreamConsumed)
}
