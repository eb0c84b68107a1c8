package limiter_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cbrugna/nyc-events/limiter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiter(t *testing.T) (*limiter.Limiter, string) {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "next-req")
	return limiter.New(filename, time.Second/10, zerolog.Nop()), filename
}

func TestSetNextAtPersists(t *testing.T) {
	lim, filename := newLimiter(t)
	require.NoError(t, lim.SetNextAt("30"))

	bs, err := os.ReadFile(filename)
	require.NoError(t, err)

	persisted, err := time.Parse(time.UnixDate, string(bs))
	require.NoError(t, err)
	// the retry-after seconds plus the one second margin
	assert.WithinDuration(t, time.Now().Add(31*time.Second), persisted, 2*time.Second)
}

func TestLoadRestoresPenalty(t *testing.T) {
	// two second penalty: the persisted format has second resolution, so
	// a shorter one could truncate away entirely
	lim, filename := newLimiter(t)
	require.NoError(t, lim.SetNextAt("1"))

	restored := limiter.New(filename, time.Second/10, zerolog.Nop())
	require.NoError(t, restored.Load())

	start := time.Now()
	require.NoError(t, restored.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 500*time.Millisecond)

	// the penalty file is consumed once served
	_, err := os.Stat(filename)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDelayBySchedulesWait(t *testing.T) {
	lim, _ := newLimiter(t)
	lim.DelayBy(300 * time.Millisecond)

	start := time.Now()
	require.NoError(t, lim.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestWaitHonorsCancellation(t *testing.T) {
	lim, _ := newLimiter(t)
	require.NoError(t, lim.SetNextAt("60"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, lim.Wait(ctx), context.DeadlineExceeded)
}