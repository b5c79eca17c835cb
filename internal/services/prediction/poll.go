package prediction

import (
	"context"
	"fmt"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// PollOptions bounds a wait for a terminal status. Zero values for
// MaxAttempts and MaxWait mean unbounded.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
	MaxWait     time.Duration
}

// Await polls a prediction until it reaches a terminal status. Each
// non-terminal response is followed by exactly one sleep of Interval, so N
// in-flight responses cost N+1 status checks and N sleeps. Terminal failures
// are returned as a Prediction, not an error; exceeding a bound yields an
// ErrTimeout error and cancellation yields ctx.Err().
func (c *Client) Await(ctx context.Context, id string, opts PollOptions) (Prediction, error) {
	logger := logging.WithContext(ctx, c.logger).With(logging.Prediction(id))
	start := c.now()
	var last Status
	for attempt := 1; ; attempt++ {
		current, err := c.Get(ctx, id)
		if err != nil {
			if isContextErr(err) && ctx.Err() != nil {
				return current, ctx.Err()
			}
			return current, err
		}
		if current.Status != last {
			logger.Debug("prediction status",
				logging.String("status", string(current.Status)),
				logging.Int("attempt", attempt),
			)
			last = current.Status
		}
		if current.Status.IsTerminal() {
			logger.Info("prediction finished",
				logging.String("status", string(current.Status)),
				logging.Int("status_checks", attempt),
				logging.Duration("elapsed", c.now().Sub(start).Round(time.Millisecond)),
			)
			return current, nil
		}
		if opts.MaxAttempts > 0 && attempt >= opts.MaxAttempts {
			return current, services.Wrap(services.ErrTimeout, stageName(ctx), "await prediction",
				fmt.Sprintf("prediction %s still %s after %d status checks", id, current.Status, attempt), nil)
		}
		if opts.MaxWait > 0 {
			if elapsed := c.now().Sub(start); elapsed >= opts.MaxWait {
				return current, services.Wrap(services.ErrTimeout, stageName(ctx), "await prediction",
					fmt.Sprintf("prediction %s still %s after %s", id, current.Status, elapsed.Round(time.Second)), nil)
			}
		}
		if err := c.sleep(ctx, opts.Interval); err != nil {
			return current, err
		}
	}
}
