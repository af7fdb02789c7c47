package election

import "context"

// Store persists elections, positions and candidates. Candidates and
// positions are immutable once their election is published; the admission
// engine and tally aggregator only ever read from here.
type Store interface {
	ListElections(ctx context.Context) ([]Election, error)
	GetElection(ctx context.Context, id string) (Election, error)
	CreateElection(ctx context.Context, e Election) (Election, error)

	GetCandidate(ctx context.Context, id string) (Candidate, error)
	GetPosition(ctx context.Context, id string) (Position, error)

	// CandidatesWithPosition resolves the given candidate ids into joined
	// candidate+position rows including location names. Unknown ids are
	// silently skipped; the tally aggregator tolerates ledger entries that
	// reference candidates this store has never seen.
	CandidatesWithPosition(ctx context.Context, ids []string) ([]CandidateDetail, error)
}
