// Package ratelimit throttles file reads with a token bucket shared by
// every reader of a run.
package ratelimit

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// minBucket keeps reads of small files from being split into tiny chunks
const minBucket = 64 * 1024

// Limiter controls the read rate across multiple readers
type Limiter struct {
	bytesPerSecond int64
	bucketSize     int64 // burst size, one second of data or minBucket

	mu         sync.Mutex
	tokens     int64
	lastUpdate time.Time
}

// NewLimiter creates a limiter allowing bytesPerSecond. A non-positive
// rate means no limiting and returns nil.
func NewLimiter(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	bucketSize := bytesPerSecond
	if bucketSize < minBucket {
		bucketSize = minBucket
	}

	return &Limiter{
		bytesPerSecond: bytesPerSecond,
		bucketSize:     bucketSize,
		tokens:         bucketSize,
		lastUpdate:     time.Now(),
	}
}

// ParseRate parses a human rate such as "10M" or "512KiB" (per second).
// The empty string means unlimited.
func ParseRate(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	return int64(n), nil
}

// Rate returns the configured bytes per second
func (l *Limiter) Rate() int64 {
	return l.bytesPerSecond
}

// wait blocks until needed tokens are available or ctx is done
func (l *Limiter) wait(ctx context.Context, needed int64) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= needed {
			l.mu.Unlock()
			return nil
		}
		deficit := needed - l.tokens
		l.mu.Unlock()

		delay := time.Duration(float64(deficit) / float64(l.bytesPerSecond) * float64(time.Second))
		if delay < time.Millisecond {
			delay = time.Millisecond
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// refill adds tokens for the elapsed time; l.mu must be held
func (l *Limiter) refill() {
	now := time.Now()
	add := int64(float64(now.Sub(l.lastUpdate)) / float64(time.Second) * float64(l.bytesPerSecond))
	if add > 0 {
		l.tokens += add
		if l.tokens > l.bucketSize {
			l.tokens = l.bucketSize
		}
		l.lastUpdate = now
	}
}

// consume takes n tokens after a read
func (l *Limiter) consume(n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens -= n
	if l.tokens < 0 {
		l.tokens = 0
	}
}

// readCloser throttles an io.ReadCloser
type readCloser struct {
	ctx     context.Context
	rc      io.ReadCloser
	limiter *Limiter
}

// NewReadCloser wraps rc so its reads draw from limiter. A nil limiter
// returns rc unchanged.
func NewReadCloser(ctx context.Context, rc io.ReadCloser, limiter *Limiter) io.ReadCloser {
	if limiter == nil {
		return rc
	}
	return &readCloser{ctx: ctx, rc: rc, limiter: limiter}
}

func (r *readCloser) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}

	toRead := len(p)
	if int64(toRead) > r.limiter.bucketSize {
		toRead = int(r.limiter.bucketSize)
	}
	if err := r.limiter.wait(r.ctx, int64(toRead)); err != nil {
		return 0, err
	}

	n, err := r.rc.Read(p[:toRead])
	if n > 0 {
		r.limiter.consume(int64(n))
	}
	return n, err
}

func (r *readCloser) Close() error {
	return r.rc.Close()
}
