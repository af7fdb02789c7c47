package vote

import "context"

// Store persists admitted votes. The store's uniqueness guarantee over
// (voter, election, position) is the final arbiter of the one-vote rule;
// everything the service checks beforehand is advisory.
type Store interface {
	// Insert persists v. Returns sentinel.ErrDuplicate when the voter has
	// already voted for this position in this election.
	Insert(ctx context.Context, v Vote) error

	// HasVoted reports whether a vote by voterID for positionID in
	// electionID already exists.
	HasVoted(ctx context.Context, voterID, electionID, positionID string) (bool, error)

	// TallyByCandidate counts votes per candidate for an election. It is
	// the fallback tally source when the ledger is unreachable.
	TallyByCandidate(ctx context.Context, electionID string) (map[string]int, error)
}
