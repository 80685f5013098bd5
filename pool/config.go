package pool

import (
	"time"

	"github.com/xenking/gorest-redis/internal/conn"
	"github.com/xenking/gorest-redis/internal/logging"
)

// CapMode selects how the Pool behaves once it has Config.MaxConnections
// Connections outstanding (§4.5 "Count behaviors").
type CapMode int

const (
	// HardCap rejects further growth once available+leased==MaxConnections;
	// callers queue in the pending-lease waiter list instead.
	HardCap CapMode = iota
	// SoftCap keeps at most MaxConnections idle but allows transient extra
	// Connections under load, closing the excess on return.
	SoftCap
)

// Config is a Pool's construction-time configuration snapshot (§3 "Pool").
type Config struct {
	// MinConnections is the population the Pool tries to maintain eagerly.
	MinConnections int
	// MaxConnections bounds the population per CapMode.
	MaxConnections int
	// Cap selects hard-cap or soft-cap overflow behavior.
	Cap CapMode
	// PendingLeaseBound caps the number of Lease callers allowed to queue
	// before new callers fast-fail (§3 invariant, default 100).
	PendingLeaseBound int

	// Dialer establishes the Transport for each new Connection.
	Dialer conn.Dialer
	// DialTimeout bounds a single dial attempt.
	DialTimeout time.Duration
	// ConnTemplate seeds every Connection's Config; Address is overwritten
	// per-target by the Pool.
	ConnTemplate conn.Config

	// InitialDelay is the base of the retry backoff (§4.5 "Retry"): retry n
	// (1-based) waits InitialDelay * BackoffFactor^n, so the first retry
	// waits InitialDelay * BackoffFactor.
	InitialDelay time.Duration
	// BackoffFactor multiplies the delay on each subsequent retry.
	BackoffFactor float64
	// MaxDelay caps the computed backoff delay (§4.5 "Retry"), the same
	// way grpc's backoff.Config bounds an otherwise-unbounded exponential
	// curve; without it, factor^attempt eventually overflows
	// time.Duration's int64 nanosecond range on a target that never comes
	// back.
	MaxDelay time.Duration
	// RetryBudget caps dial attempts per lease request; 0 means unlimited:
	// the dial loop keeps rotating through the address snapshot until a dial
	// succeeds or the Lease caller gives up.
	RetryBudget int

	// Addresses seeds the target list. If Discovery is also set, these
	// addresses are used until the first discovery update replaces them.
	Addresses []string

	// Discovery, if set, feeds the Pool a stream of address-set updates
	// (§4.5 "Service discovery"); its completion (error or normal) begins
	// Pool self-close.
	Discovery Discovery

	// CheckHealth, if set, is run against an idle Connection before it is
	// handed to a Lease caller; a non-nil return discards the connection
	// and tries the next one (grounded on go-redis/v9's health check before
	// handoff in baseClient._getConn — see DESIGN.md).
	CheckHealth func(*conn.Connection) error

	Log logging.Logging
}

// WithDefaults fills zero-valued fields with the defaults named in §4.5.
func (c Config) WithDefaults() Config {
	if c.PendingLeaseBound == 0 {
		c.PendingLeaseBound = 100
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 2
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.MaxConnections == 0 {
		c.MaxConnections = 10
	}
	if c.Log == nil {
		c.Log = logging.Default()
	}
	return c
}
