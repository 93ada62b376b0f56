package service

import (
	"context"
	"sync"
	"time"

	id "clubhouse/pkg/domain"
	dErrors "clubhouse/pkg/domain-errors"
)

// StoreTx serializes membership transitions for one person. Implementations
// either wrap a database transaction or, in memory, a per-person lock.
type StoreTx interface {
	RunInTx(ctx context.Context, personID id.PersonID, fn func(ctx context.Context) error) error
	// Atomic reports whether a failed fn rolls back writes it already made.
	Atomic() bool
}

// Distributes persons across a fixed set of mutexes so transitions for
// different persons rarely contend.
const numMembershipShards = 128

const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numMembershipShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx returns the in-memory StoreTx. It serializes but cannot roll
// back, so callers must detect half-applied transitions themselves.
func NewShardedTx() StoreTx {
	return &shardedTx{timeout: defaultTxTimeout}
}

func (t *shardedTx) RunInTx(ctx context.Context, personID id.PersonID, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	shard := &t.shards[hashPerson(personID)%numMembershipShards]
	shard.Lock()
	defer shard.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

func (t *shardedTx) Atomic() bool { return false }

// FNV-1a over the raw UUID bytes.
func hashPerson(personID id.PersonID) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, b := range personID {
		h ^= uint32(b)
		h *= fnvPrime
	}
	return h
}
