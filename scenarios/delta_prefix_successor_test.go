package scenarios

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cocol-go/cocol"
)

// TestDeltaPrefixSuccessor wires the classical CSP natural-number generator:
// Prefix emits 0 once then copies whatever Successor feeds back; Delta
// duplicates Prefix's output to Successor (closing the loop, adding one each
// trip) and to the Consumer; Consumer reads the resulting 0,1,2,3,... stream.
func TestDeltaPrefixSuccessor(t *testing.T) {
	prefixIn := cocol.NewChannel[int]()  // Successor -> Prefix
	prefixOut := cocol.NewChannel[int]() // Prefix -> Delta
	toSuccessor := cocol.NewChannel[int]()
	toConsumer := cocol.NewChannel[int]()

	all := []*cocol.Channel[int]{prefixIn, prefixOut, toSuccessor, toConsumer}
	stop := func() {
		for _, ch := range all {
			ch.Retire(true)
		}
	}

	// Prefix
	go func() {
		if err := prefixOut.Write(context.Background(), 0); err != nil {
			return
		}
		for {
			v, err := prefixIn.Read(context.Background())
			if err != nil {
				return
			}
			if err := prefixOut.Write(context.Background(), v); err != nil {
				return
			}
		}
	}()

	// Delta
	go func() {
		for {
			v, err := prefixOut.Read(context.Background())
			if err != nil {
				return
			}
			if err := toSuccessor.Write(context.Background(), v); err != nil {
				return
			}
			if err := toConsumer.Write(context.Background(), v); err != nil {
				return
			}
		}
	}()

	// Successor
	go func() {
		for {
			v, err := toSuccessor.Read(context.Background())
			if err != nil {
				return
			}
			if err := prefixIn.Write(context.Background(), v+1); err != nil {
				return
			}
		}
	}()

	const want = 10
	got := make([]int, 0, want)
	for i := 0; i < want; i++ {
		v, err := toConsumer.Read(context.Background())
		require.NoError(t, err)
		got = append(got, v)
	}
	stop()

	for i := 0; i < want; i++ {
		require.Equal(t, i, got[i])
	}
}
