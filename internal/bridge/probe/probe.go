package probe

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Status is the outcome of a single reachability check.
type Status int

const (
	Unreachable Status = iota
	Reachable
)

// String returns the string representation of the status.
func (s Status) String() string {
	if s == Reachable {
		return "reachable"
	}
	return "unreachable"
}

// DefaultInterval is the fixed probe cadence. There is no backoff: the
// session self-heals on the next successful check without user action.
const DefaultInterval = 10 * time.Second

// Probe determines peer reachability independent of the message channel by
// polling the peer's health endpoint. Results stream on a channel consumed
// by the connection controller.
type Probe struct {
	client   *resty.Client
	base     string
	interval time.Duration
	logger   *zap.Logger

	results chan Status
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started bool
	mu      sync.Mutex
}

// New creates a probe for the health endpoint at base + "/health".
// A nil client gets a short-timeout default; checks are single
// observations, so the client must not retry internally.
func New(base string, interval time.Duration, client *resty.Client, logger *zap.Logger) *Probe {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if client == nil {
		client = resty.New().SetTimeout(5 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Probe{
		client:   client,
		base:     base,
		interval: interval,
		logger:   logger,
		results:  make(chan Status, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Check performs one reachability check. Exactly one outcome per call:
// transport failures, timeouts, and non-200 statuses all map to
// Unreachable. Check never returns an error.
func (p *Probe) Check(ctx context.Context) Status {
	resp, err := p.client.R().SetContext(ctx).Get(p.base + "/health")
	if err != nil {
		p.logger.Debug("health check failed", zap.String("base", p.base), zap.Error(err))
		return Unreachable
	}
	if resp.StatusCode() != http.StatusOK {
		p.logger.Debug("health check non-200", zap.Int("status", resp.StatusCode()))
		return Unreachable
	}
	return Reachable
}

// Start begins probing: one check immediately, then one per interval.
// Runs until Stop is called or ctx is cancelled. Start is one-shot.
func (p *Probe) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()
	go p.run(ctx)
}

// Results returns the stream of check outcomes. The channel is closed when
// the probe stops.
func (p *Probe) Results() <-chan Status {
	return p.results
}

// Stop cancels probing and releases the interval timer. Safe to call more
// than once; blocks until the probe goroutine has exited.
func (p *Probe) Stop() {
	p.once.Do(func() { close(p.stop) })

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if started {
		<-p.done
	}
}

func (p *Probe) run(ctx context.Context) {
	defer close(p.done)
	defer close(p.results)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.emit(ctx, p.Check(ctx))

	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.emit(ctx, p.Check(ctx))
		}
	}
}

// emit delivers a result without ever blocking the probe loop: if the
// consumer lags, the stale pending result is replaced by the fresh one.
func (p *Probe) emit(ctx context.Context, s Status) {
	select {
	case p.results <- s:
		return
	default:
	}
	select {
	case <-p.results:
	default:
	}
	select {
	case p.results <- s:
	case <-p.stop:
	case <-ctx.Done():
	}
}
