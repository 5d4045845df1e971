package bus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBus connects to the redis named by REDIS_URL; tests are skipped
// when no server is configured.
func testBus(t *testing.T) *Bus {
	t.Helper()
	if os.Getenv("REDIS_URL") == "" {
		t.Skip("Skipping redis test: REDIS_URL not set")
	}
	b, err := Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestAxesClip(t *testing.T) {
	in := Axes{Roll: 1.5, Pitch: -2, Yaw: 0.25, Throttle: -1}
	got := in.Clip()
	assert.Equal(t, Axes{Roll: 1, Pitch: -1, Yaw: 0.25, Throttle: -1}, got)
}

func TestAttitudeRoundTrip(t *testing.T) {
	b := testBus(t)
	ctx := context.Background()

	in := Attitude{Roll: -12.5, Pitch: 3.1, Heading: 271}
	require.NoError(t, b.SetAttitude(ctx, in))

	out, err := b.Attitude(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRCRoundTrip(t *testing.T) {
	b := testBus(t)
	ctx := context.Background()

	in := Axes{Roll: 0.25, Pitch: -0.5, Yaw: 1, Throttle: -1}
	require.NoError(t, b.SetRC(ctx, in))

	out, err := b.RC(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCommandRoundTrip(t *testing.T) {
	b := testBus(t)
	ctx := context.Background()

	in := Axes{Roll: 0.1, Pitch: 0.2, Yaw: -0.3}
	require.NoError(t, b.SetCommand(ctx, in))

	out, err := b.Command(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSubscribeRC_ReceivesUpdate(t *testing.T) {
	b := testBus(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := b.SubscribeRC(ctx)
	defer sub.Close()

	// Give the subscription a moment to register before publishing.
	time.Sleep(100 * time.Millisecond)

	in := Axes{Roll: 0.75}
	require.NoError(t, b.SetRC(ctx, in))

	out, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
