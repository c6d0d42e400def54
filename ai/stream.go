package ai

import (
	"errors"
	"iter"
	"strings"
	"sync/atomic"
)

// ErrStreamConsumed is yielded when a generation stream is ranged over twice.
var ErrStreamConsumed = errors.New("generation stream already consumed")

// Once wraps seq so it can be consumed a single time.
func Once(seq iter.Seq2[string, error]) iter.Seq2[string, error] {
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if used.Swap(true) {
			yield("", ErrStreamConsumed)
			return
		}
		seq(yield)
	}
}

// Collect drains a generation stream and returns the concatenated text.
// onFragment, when non-nil, receives the accumulated text after every fragment
// so callers can render partial output.
func Collect(seq iter.Seq2[string, error], onFragment func(partial string)) (string, error) {
	var sb strings.Builder
	for fragment, err := range seq {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(fragment)
		if onFragment != nil {
			onFragment(sb.String())
		}
	}
	return sb.String(), nil
}
