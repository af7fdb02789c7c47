// Package vote implements the admission engine: the single write path
// through which ballots enter the platform. Every cast runs the full gate
// sequence (voter known, location set, candidate known, geographically
// eligible, not a duplicate) before anything is persisted.
package vote

import (
	"context"
	"time"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/eligibility"
)

type Vote struct {
	ID              string    `json:"id"`
	VoterID         string    `json:"voterId"`
	ElectionID      string    `json:"electionId"`
	PositionID      string    `json:"positionId"`
	CandidateID     string    `json:"candidateId"`
	TransactionHash *string   `json:"transactionHash"`
	CreatedAt       time.Time `json:"timestamp"`
}

// BallotItem is one selection in a cast request.
type BallotItem struct {
	ElectionID  string `json:"electionId"`
	CandidateID string `json:"candidateId"`
}

// Receipt is returned to the voter for each admitted vote. TransactionHash
// is nil when the ledger was unreachable at cast time.
type Receipt struct {
	VoteID          string    `json:"voteId"`
	ElectionID      string    `json:"electionId"`
	CandidateID     string    `json:"candidateId"`
	TransactionHash *string   `json:"transactionHash"`
	Timestamp       time.Time `json:"timestamp"`
}

// Voter is the slice of a user record the admission engine needs.
type Voter struct {
	ID       string
	Name     string
	Location eligibility.Location
}

// VoterDirectory resolves authenticated voter ids to their registered
// location. Returns sentinel.ErrNotFound for unknown ids.
type VoterDirectory interface {
	FindVoter(ctx context.Context, id string) (Voter, error)
}
