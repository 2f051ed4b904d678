package scenarios

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cocol-go/cocol"
)

// TestReadTimeoutWithoutPeer confirms a Read against a channel with no
// writer ever arriving terminates with ErrTimeout within its deadline
// window, rather than blocking forever.
func TestReadTimeoutWithoutPeer(t *testing.T) {
	ch := cocol.NewChannel[int]()

	start := time.Now()
	_, err := ch.Read(context.Background(), cocol.WithRequestTimeout(200*time.Millisecond))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, cocol.ErrTimeout)
	require.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	require.Less(t, elapsed, 700*time.Millisecond)
}
