package password

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"

	"authservice/backend/internal/metrics"
)

// Hasher is the method set shared by the concrete hashers.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
	NeedsRehash(hash string) bool
}

var (
	_ Hasher = (*Bcrypt)(nil)
	_ Hasher = (*Argon2id)(nil)
	_ Hasher = (*Limited)(nil)
	_ Hasher = (*Dispatch)(nil)
)

// Limited caps the number of hash computations running at once so a burst of
// signups cannot starve the rest of the process.
type Limited struct {
	next Hasher
	sem  *semaphore.Weighted
}

// NewLimited wraps next. maxConcurrent <= 0 defaults to the number of CPUs.
func NewLimited(next Hasher, maxConcurrent int) *Limited {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}
	return &Limited{
		next: next,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Hash waits for a free slot, then delegates.
func (l *Limited) Hash(ctx context.Context, password string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", oops.Code("PASSWORD_HASH_WAIT").Wrap(err)
	}
	defer l.sem.Release(1)

	start := time.Now()
	defer func() { metrics.ObservePasswordHash("hash", time.Since(start)) }()
	return l.next.Hash(ctx, password)
}

// Verify waits for a free slot, then delegates.
func (l *Limited) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, oops.Code("PASSWORD_HASH_WAIT").Wrap(err)
	}
	defer l.sem.Release(1)

	start := time.Now()
	defer func() { metrics.ObservePasswordHash("verify", time.Since(start)) }()
	return l.next.Verify(ctx, password, hash)
}

// NeedsRehash delegates without taking a slot; it does no hashing.
func (l *Limited) NeedsRehash(hash string) bool {
	return l.next.NeedsRehash(hash)
}

// Supported algorithm names.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Options selects and tunes the hasher built by New.
type Options struct {
	Algorithm     string
	BcryptCost    int
	Argon2        Argon2Params
	MaxConcurrent int
}

// New builds the configured hasher, able to verify hashes from either
// algorithm, wrapped in a concurrency limit.
func New(opts Options) (*Limited, error) {
	var (
		inner Hasher
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Algorithm)) {
	case "", AlgorithmBcrypt:
		inner, err = NewBcrypt(opts.BcryptCost)
	case AlgorithmArgon2id:
		inner, err = NewArgon2id(opts.Argon2)
	default:
		return nil, fmt.Errorf("unsupported password hash algorithm %q", opts.Algorithm)
	}
	if err != nil {
		return nil, err
	}
	d, err := NewDispatch(inner)
	if err != nil {
		return nil, err
	}
	return NewLimited(d, opts.MaxConcurrent), nil
}
