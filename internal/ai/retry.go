package ai

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net"
	"syscall"
	"time"
)

// RetryPolicy bounds how often, and how quickly, a failed runtime call is repeated.
type RetryPolicy struct {
	// Attempts counts every try, the first included; <= 0 means one.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = time.Second
	}
	return p
}

// backoff yields doubling, jittered delays capped at max.
type backoff struct {
	next time.Duration
	max  time.Duration
}

// wait sleeps for the next delay. It returns early with ctx.Err() when ctx ends.
func (b *backoff) wait(ctx context.Context) error {
	d := jitter(b.next)
	if d > b.max {
		d = b.max
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	b.next *= 2
	return nil
}

// jitter spreads d by +/-20%.
func jitter(d time.Duration) time.Duration {
	f := 0.8 + rand.Float64()*0.4
	if out := time.Duration(float64(d) * f); out > 0 {
		return out
	}
	return d
}

// retryable reports whether repeating the call could succeed: runtime 5xx answers and
// dropped or timed-out connections. A refused connection means nothing is listening.
func retryable(err error) bool {
	var se *ServerError
	if errors.As(err, &se) {
		return true
	}
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		return false
	}
	var nerr net.Error
	if errors.As(ue.Err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(ue.Err, io.EOF) || errors.Is(ue.Err, io.ErrUnexpectedEOF) ||
		errors.Is(ue.Err, syscall.ECONNRESET)
}
