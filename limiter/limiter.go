// Package limiter paces outbound requests to a rate-limited service. The
// next allowed request time is persisted to a file so that a Retry-After
// penalty from the service survives process restarts.
package limiter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

func New(filename string, delay time.Duration, log zerolog.Logger) *Limiter {
	return &Limiter{
		filename: filename,
		delay:    delay,
		log:      log,
	}
}

// A Limiter tracks the earliest time the next request may be sent. It is
// not safe for concurrent use; callers serialize access.
type Limiter struct {
	filename string
	delay    time.Duration
	nextAt   time.Time
	log      zerolog.Logger
}

// Load restores a persisted next-request time, if one exists.
func (lim *Limiter) Load() error {
	if _, err := os.Stat(lim.filename); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error statting file: %w", err)
	}

	bs, err := os.ReadFile(lim.filename)
	if err != nil {
		return err
	}

	lim.nextAt, err = time.Parse(time.UnixDate, string(bs))
	if err != nil {
		return err
	}

	return nil
}

// Wait blocks until the next request is allowed, or until ctx is canceled.
func (lim *Limiter) Wait(ctx context.Context) error {
	if !lim.nextAt.IsZero() {
		now := time.Now()
		dur := lim.nextAt.Sub(now)
		if dur > time.Second {
			lim.log.Info().
				Str("until", lim.nextAt.Format(time.StampMilli)).
				Dur("wait", dur.Truncate(time.Second)).
				Msg("rate limited; waiting")
		}

	wait:
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dur):
			break wait
		}

		if err := os.Remove(lim.filename); err != nil &&
			!errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

// SetNextAt applies a Retry-After value (in seconds, as sent by the
// service). An empty value means a one minute penalty. The resulting
// next-request time is persisted.
func (lim *Limiter) SetNextAt(secondsStr string) error {
	if secondsStr == "" {
		secondsStr = "60"
	}
	seconds, err := strconv.ParseInt(secondsStr, 10, 64)
	if err != nil {
		return err
	}
	waitTime := time.Duration(seconds)*time.Second + time.Second
	lim.nextAt = time.Now().Add(waitTime)
	if err := os.WriteFile(lim.filename, []byte(lim.nextAt.Format(time.UnixDate)), 0666); err != nil {
		return err
	}
	return nil
}

// Delay schedules the next request one standard delay from now.
func (lim *Limiter) Delay() {
	lim.DelayBy(lim.delay)
}

func (lim *Limiter) DelayBy(d time.Duration) {
	lim.nextAt = time.Now().Add(d)
}
