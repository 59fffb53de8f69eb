package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrCircuitOpen is returned for calls rejected by an open breaker.
var ErrCircuitOpen = eris.New("resilience: circuit open")

// State of a Breaker.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig controls when a Breaker opens.
type BreakerConfig struct {
	Name string
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before allowing a trial request.
	Cooldown time.Duration
	// TripNow opens the breaker on the first matching error regardless of
	// Threshold. Defaults to IsFatal.
	TripNow func(err error) bool
}

// Breaker stops calls to a service that keeps failing. It is shared by all
// queries against one API so a bad key or exhausted quota costs one request,
// not one per query.
type Breaker struct {
	cfg BreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}
	if cfg.TripNow == nil {
		cfg.TripNow = IsFatal
	}
	return &Breaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.allow(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		return HalfOpen
	}
	return b.state
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return nil
	}
	if b.now().Sub(b.openedAt) >= b.cfg.Cooldown {
		b.setState(HalfOpen)
		return nil
	}
	return ErrCircuitOpen
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		if b.state != Closed {
			b.setState(Closed)
		}
		return
	}
	// Cancellation says nothing about the service.
	if errors.Is(err, context.Canceled) {
		return
	}

	b.failures++
	if b.state == HalfOpen || b.failures >= b.cfg.Threshold || b.cfg.TripNow(err) {
		b.openedAt = b.now()
		if b.state != Open {
			b.setState(Open)
		}
	}
}

func (b *Breaker) setState(to State) {
	zap.L().Info("resilience: breaker state change",
		zap.String("service", b.cfg.Name),
		zap.Stringer("from", b.state),
		zap.Stringer("to", to),
	)
	b.state = to
}
