// Package identity maintains the stable mapping from voter ids to ledger
// signing addresses. Once assigned, a voter's address never changes: the
// ledger's duplicate detection keys on the address, so remapping a voter
// would let them vote twice on chain.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// Store persists the voter→address mapping. Entries are never evicted; they
// live for the process lifetime (memory) or indefinitely (redis).
type Store interface {
	// Get returns the address mapped to voterID, or sentinel.ErrNotFound.
	Get(ctx context.Context, voterID string) (string, error)
	// Set records the mapping. First write wins; setting an already-mapped
	// voter to a different address is an error.
	Set(ctx context.Context, voterID, addr string) error
}

// Allocator hands out ledger addresses, consulting the store first so the
// mapping stays stable and assigning from next on first sight.
type Allocator struct {
	store Store
	next  func(ctx context.Context) (string, error)
}

// NewAllocator builds an allocator. next produces a fresh address for a
// voter seen for the first time.
func NewAllocator(store Store, next func(ctx context.Context) (string, error)) *Allocator {
	return &Allocator{store: store, next: next}
}

// AddressFor returns the voter's ledger address, assigning one on first use.
func (a *Allocator) AddressFor(ctx context.Context, voterID string) (string, error) {
	addr, err := a.store.Get(ctx, voterID)
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return "", fmt.Errorf("identity lookup: %w", err)
	}

	addr, err = a.next(ctx)
	if err != nil {
		return "", fmt.Errorf("derive ledger address: %w", err)
	}
	if err := a.store.Set(ctx, voterID, addr); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			// Lost a race with a concurrent assignment; the stored address
			// is authoritative.
			return a.store.Get(ctx, voterID)
		}
		return "", fmt.Errorf("persist ledger address: %w", err)
	}
	return addr, nil
}

// FreshKeyAddress generates a new secp256k1 key and returns its address.
// Used as the allocator source for the in-process chain, giving an injective
// voter→address mapping. The private key is discarded: the dev chain does
// not verify signatures.
func FreshKeyAddress(ctx context.Context) (string, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
