// Package cache holds pool descriptors for display only. Operations always
// fetch a fresh descriptor; nothing here is authoritative.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/observability"
)

// DefaultTTL bounds how stale a displayed descriptor may be.
const DefaultTTL = 30 * time.Second

// ErrMiss is returned by Get when no fresh entry exists.
var ErrMiss = errors.New("cache miss")

// Cache stores encoded pool descriptors by pool address.
type Cache interface {
	Get(ctx context.Context, pool string) (*domain.PoolDescriptor, error)
	Set(ctx context.Context, desc *domain.PoolDescriptor) error
}

// PoolFetcher reads a live descriptor. Implemented by stakepool.Client.
type PoolFetcher interface {
	PoolInfo(ctx context.Context, pool solana.PublicKey) (*domain.PoolDescriptor, error)
}

// Pools serves descriptors for display, reading through the cache.
type Pools struct {
	fetch PoolFetcher
	cache Cache
	log   logrus.FieldLogger
}

// NewPools creates a read-through view. A nil cache always fetches.
func NewPools(fetch PoolFetcher, cache Cache, log logrus.FieldLogger) *Pools {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pools{fetch: fetch, cache: cache, log: log.WithField("component", "cache")}
}

// Get returns a possibly cached descriptor. fromCache reports a hit.
// Cache failures are logged and fall through to the network.
func (p *Pools) Get(ctx context.Context, pool solana.PublicKey) (desc *domain.PoolDescriptor, fromCache bool, err error) {
	if p.cache != nil {
		desc, err := p.cache.Get(ctx, pool.String())
		switch {
		case err == nil:
			observability.RecordCache(true)
			return desc, true, nil
		case !errors.Is(err, ErrMiss):
			p.log.WithError(err).WithField("pool", pool.String()).Warn("cache read failed")
		}
		observability.RecordCache(false)
	}

	desc, err = p.fetch.PoolInfo(ctx, pool)
	if err != nil {
		return nil, false, err
	}
	if p.cache != nil {
		if err := p.cache.Set(ctx, desc); err != nil {
			p.log.WithError(err).WithField("pool", pool.String()).Warn("cache write failed")
		}
	}
	return desc, false, nil
}

func encode(desc *domain.PoolDescriptor) ([]byte, error) {
	data, err := json.Marshal(desc)
	if err != nil {
		return nil, fmt.Errorf("encode descriptor: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*domain.PoolDescriptor, error) {
	var desc domain.PoolDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("decode descriptor: %w", err)
	}
	return &desc, nil
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// Memory is a process-local Cache with a fixed TTL.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an in-process cache. ttl <= 0 uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

// Get returns the entry for pool or ErrMiss when absent or expired.
func (m *Memory) Get(_ context.Context, pool string) (*domain.PoolDescriptor, error) {
	m.mu.Lock()
	e, ok := m.entries[pool]
	if ok && !m.now().Before(e.expires) {
		delete(m.entries, pool)
		ok = false
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrMiss
	}
	return decode(e.data)
}

// Set stores desc under its address.
func (m *Memory) Set(_ context.Context, desc *domain.PoolDescriptor) error {
	data, err := encode(desc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[desc.Address.String()] = memoryEntry{data: data, expires: m.now().Add(m.ttl)}
	return nil
}
