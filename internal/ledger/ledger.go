package ledger

import (
	"context"
	"errors"
)

// The ledger is an external append-only event log. It is a second,
// non-authoritative record of votes: the relational store decides admission,
// the ledger provides an independent audit trail. Every implementation must
// treat transport failures as recoverable facts, never as panics.

var (
	// ErrNotConnected means the ledger endpoint is unreachable. Callers in
	// the admission path log and continue.
	ErrNotConnected = errors.New("ledger not connected")
	// ErrAlreadyVoted means the ledger already holds a vote from this
	// voter's address for the composite election id.
	ErrAlreadyVoted = errors.New("ledger: already voted")
	// ErrNoAccount means no signing identity could be derived for the voter.
	ErrNoAccount = errors.New("ledger: no account available")
)

// Entry is one immutable ledger record. ElectionID holds the composite id
// (see CompositeID); Voter is the opaque ledger address, never a voter id.
type Entry struct {
	ElectionID  string `json:"electionId"`
	CandidateID string `json:"candidateId"`
	Voter       string `json:"voter"`
}

// CandidateCount is one row of a ledger-side tally.
type CandidateCount struct {
	CandidateID string `json:"candidateId"`
	VoteCount   int    `json:"voteCount"`
}

// NetworkInfo describes the ledger endpoint for the status endpoint and
// admin dashboard.
type NetworkInfo struct {
	NetworkID       int64  `json:"networkId"`
	BlockNumber     uint64 `json:"blockNumber"`
	AccountsCount   int    `json:"accountsCount"`
	ContractAddress string `json:"contractAddress,omitempty"`
	Connected       bool   `json:"isConnected"`
}

// Client is the boundary to the distributed ledger. All methods honor ctx
// deadlines; a timed-out call is equivalent to a connectivity failure.
type Client interface {
	// IsConnected never returns an error: any transport failure is "false".
	IsConnected(ctx context.Context) bool

	// AppendVote records a vote under the composite election id on behalf
	// of voterID, resolving the voter's ledger address internally. Returns
	// the ledger transaction id.
	AppendVote(ctx context.Context, compositeElectionID, candidateID, voterID string) (string, error)

	// ReadAllVotes returns the full log. Callers filter by composite-id
	// prefix; one logical election maps to many composite ids.
	ReadAllVotes(ctx context.Context) ([]Entry, error)

	// TallyForElection aggregates ReadAllVotes over every composite id
	// belonging to electionID.
	TallyForElection(ctx context.Context, electionID string) ([]CandidateCount, error)

	// NetworkInfo reports endpoint details; on failure it returns a
	// zero-valued info with Connected=false rather than an error.
	NetworkInfo(ctx context.Context) NetworkInfo
}

// TallyEntries is the shared aggregation used by TallyForElection
// implementations: count entries belonging to electionID per candidate.
// Candidates appear in first-seen order so repeated tallies are stable.
func TallyEntries(entries []Entry, electionID string) []CandidateCount {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		if !BelongsToElection(e.ElectionID, electionID) {
			continue
		}
		if _, seen := counts[e.CandidateID]; !seen {
			order = append(order, e.CandidateID)
		}
		counts[e.CandidateID]++
	}
	out := make([]CandidateCount, 0, len(order))
	for _, id := range order {
		out = append(out, CandidateCount{CandidateID: id, VoteCount: counts[id]})
	}
	return out
}
