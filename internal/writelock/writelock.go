package writelock

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/finvault/finance-tracker/pkg/logger"
	"github.com/finvault/finance-tracker/pkg/redis"
)

// The validator runs check-then-act reads with no transaction around
// them: two concurrent creates with the same unique key can both pass.
// Callers close that window by serializing writes per tenant through a
// Locker around the validate-then-write pair.

var ErrLockAcquireFailed = errors.New("failed to acquire tenant write lock")

// Locker serializes writes for one tenant at a time.
type Locker interface {
	// Acquire blocks until the tenant lock is held or ctx is done. The
	// returned release function must be called exactly once.
	Acquire(ctx context.Context, tenantID string) (release func(), err error)
}

// Local is the in-process locker used by the demo and local modes, where
// a single process owns the backend.
type Local struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*sync.Mutex)}
}

func (l *Local) Acquire(ctx context.Context, tenantID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	m, ok := l.locks[tenantID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tenantID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// LeaseConfig tunes the hosted-mode lease.
type LeaseConfig struct {
	TTL           time.Duration
	RetryInterval time.Duration
	KeyPrefix     string
}

func DefaultLeaseConfig() LeaseConfig {
	return LeaseConfig{
		TTL:           10 * time.Second,
		RetryInterval: 25 * time.Millisecond,
		KeyPrefix:     "writelock:",
	}
}

// Lease serializes writers across processes with a redis SET NX key per
// tenant. The TTL keeps a crashed holder from blocking the tenant
// forever; a holder slower than the TTL loses exclusivity, which is the
// usual lease trade-off.
type Lease struct {
	redis  redis.RedisAdapter
	config LeaseConfig
}

func NewLease(adapter redis.RedisAdapter, config LeaseConfig) *Lease {
	return &Lease{redis: adapter, config: config}
}

func (l *Lease) Acquire(ctx context.Context, tenantID string) (func(), error) {
	key := l.config.KeyPrefix + tenantID
	value := []byte(time.Now().Format(time.RFC3339Nano))

	for {
		acquired, err := l.redis.SetNX(key, value, l.config.TTL)
		if err != nil {
			return nil, errors.Wrap(ErrLockAcquireFailed, err.Error())
		}
		if acquired {
			release := func() {
				if err := l.redis.Del(key); err != nil {
					logger.Warn("failed to release tenant write lock", "tenant", tenantID, "error", err)
				}
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.config.RetryInterval):
		}
	}
}
