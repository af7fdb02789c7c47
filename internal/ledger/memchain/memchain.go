// Package memchain is the in-process ledger backend: a hash-linked chain of
// vote blocks with the same client surface as the RPC-backed ledger. It
// backs development runs without a blockchain node and the test suite.
package memchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/identity"
)

// MaxPendingVotes is the number of pending entries that triggers sealing a
// new block.
const MaxPendingVotes = 5

// devNetworkID matches the conventional local-chain network id so status
// output looks familiar next to a Ganache node.
const devNetworkID = 1337

type block struct {
	Timestamp int64          `json:"timestamp"`
	PrevHash  string         `json:"prev_hash"`
	Entries   []ledger.Entry `json:"entries"`
	Hash      string         `json:"hash"`
}

// Chain is an append-only in-memory ledger. Safe for concurrent use.
type Chain struct {
	mu      sync.RWMutex
	blocks  []block
	pending []ledger.Entry
	// voted[compositeID][addr] guards at-most-one-vote-per-address per
	// contest, mirroring the VoteLedger contract's hasVoted mapping.
	voted map[string]map[string]bool
	alloc *identity.Allocator
	log   *slog.Logger
}

func New(alloc *identity.Allocator, log *slog.Logger) *Chain {
	genesis := block{
		Timestamp: time.Now().Unix(),
		PrevHash:  "0",
		Entries:   []ledger.Entry{},
	}
	genesis.Hash = calculateHash(genesis)
	return &Chain{
		blocks: []block{genesis},
		voted:  make(map[string]map[string]bool),
		alloc:  alloc,
		log:    log,
	}
}

func calculateHash(b block) string {
	hashBlock := b
	hashBlock.Hash = ""
	data, err := json.Marshal(hashBlock)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsConnected always succeeds: the chain lives in-process.
func (c *Chain) IsConnected(ctx context.Context) bool { return true }

func (c *Chain) AppendVote(ctx context.Context, compositeElectionID, candidateID, voterID string) (string, error) {
	addr, err := c.alloc.AddressFor(ctx, voterID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ledger.ErrNoAccount, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.voted[compositeElectionID][addr] {
		return "", ledger.ErrAlreadyVoted
	}

	entry := ledger.Entry{ElectionID: compositeElectionID, CandidateID: candidateID, Voter: addr}
	c.pending = append(c.pending, entry)
	if c.voted[compositeElectionID] == nil {
		c.voted[compositeElectionID] = make(map[string]bool)
	}
	c.voted[compositeElectionID][addr] = true

	txHash := transactionHash(entry, len(c.blocks), len(c.pending))

	if len(c.pending) >= MaxPendingVotes {
		c.sealBlock()
	}
	return txHash, nil
}

func transactionHash(e ledger.Entry, height, seq int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%d", e.ElectionID, e.CandidateID, e.Voter, height, seq)))
	return "0x" + hex.EncodeToString(sum[:])
}

// sealBlock moves pending entries into a new block. Callers hold the write
// lock.
func (c *Chain) sealBlock() {
	last := c.blocks[len(c.blocks)-1]
	b := block{
		Timestamp: time.Now().Unix(),
		PrevHash:  last.Hash,
		Entries:   c.pending,
	}
	b.Hash = calculateHash(b)
	c.blocks = append(c.blocks, b)
	c.pending = make([]ledger.Entry, 0)
	if c.log != nil {
		c.log.Debug("sealed ledger block", "height", len(c.blocks)-1, "entries", len(b.Entries))
	}
}

func (c *Chain) ReadAllVotes(ctx context.Context) ([]ledger.Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var all []ledger.Entry
	for _, b := range c.blocks {
		all = append(all, b.Entries...)
	}
	all = append(all, c.pending...)
	return all, nil
}

func (c *Chain) TallyForElection(ctx context.Context, electionID string) ([]ledger.CandidateCount, error) {
	entries, err := c.ReadAllVotes(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.TallyEntries(entries, electionID), nil
}

func (c *Chain) NetworkInfo(ctx context.Context) ledger.NetworkInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	addrs := make(map[string]struct{})
	for _, perContest := range c.voted {
		for addr := range perContest {
			addrs[addr] = struct{}{}
		}
	}
	return ledger.NetworkInfo{
		NetworkID:     devNetworkID,
		BlockNumber:   uint64(len(c.blocks) - 1),
		AccountsCount: len(addrs),
		Connected:     true,
	}
}

// Validate walks the chain verifying hash links, for the admin audit
// surface.
func (c *Chain) Validate() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := 1; i < len(c.blocks); i++ {
		if c.blocks[i].PrevHash != c.blocks[i-1].Hash {
			return false
		}
		if calculateHash(c.blocks[i]) != c.blocks[i].Hash {
			return false
		}
	}
	return true
}
