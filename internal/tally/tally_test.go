package tally

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/election"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/identity"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/memchain"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/vote"
)

const testElection = "election-1"

type fakeResolver struct {
	details map[string]election.CandidateDetail
}

func (f *fakeResolver) CandidatesWithPosition(ctx context.Context, ids []string) ([]election.CandidateDetail, error) {
	var out []election.CandidateDetail
	for _, id := range ids {
		if d, ok := f.details[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// offlineLedger always reports disconnected.
type offlineLedger struct{}

func (offlineLedger) IsConnected(ctx context.Context) bool { return false }
func (offlineLedger) AppendVote(ctx context.Context, compositeElectionID, candidateID, voterID string) (string, error) {
	return "", ledger.ErrNotConnected
}
func (offlineLedger) ReadAllVotes(ctx context.Context) ([]ledger.Entry, error) {
	return nil, ledger.ErrNotConnected
}
func (offlineLedger) TallyForElection(ctx context.Context, electionID string) ([]ledger.CandidateCount, error) {
	return nil, ledger.ErrNotConnected
}
func (offlineLedger) NetworkInfo(ctx context.Context) ledger.NetworkInfo {
	return ledger.NetworkInfo{}
}

func strPtr(s string) *string { return &s }

func newResolver() *fakeResolver {
	presPos := election.Position{ID: "pos-pres", Title: "President of Kenya", Type: election.PositionPresident, ElectionID: testElection}
	govPos := election.Position{ID: "pos-gov", Title: "Governor Nairobi", Type: election.PositionGovernor, ElectionID: testElection}
	govLoc := election.LocationNames{County: strPtr("Nairobi")}
	return &fakeResolver{details: map[string]election.CandidateDetail{
		"cand-a": {Candidate: election.Candidate{ID: "cand-a", Name: "A", Party: "P1", PositionID: "pos-pres"}, Position: presPos},
		"cand-b": {Candidate: election.Candidate{ID: "cand-b", Name: "B", Party: "P2", PositionID: "pos-pres"}, Position: presPos},
		"cand-g": {Candidate: election.Candidate{ID: "cand-g", Name: "G", Party: "P3", PositionID: "pos-gov"}, Position: govPos, Location: govLoc},
	}}
}

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func seededChain(t *testing.T) *memchain.Chain {
	t.Helper()
	ctx := context.Background()
	chain := memchain.New(identity.NewAllocator(identity.NewMemoryStore(), identity.FreshKeyAddress), nil)
	casts := []struct{ position, candidate, voter string }{
		{"pos-pres", "cand-a", "v1"},
		{"pos-pres", "cand-a", "v2"},
		{"pos-pres", "cand-b", "v3"},
		{"pos-gov", "cand-g", "v1"},
	}
	for _, c := range casts {
		_, err := chain.AppendVote(ctx, ledger.CompositeID(testElection, c.position), c.candidate, c.voter)
		require.NoError(t, err)
	}
	return chain
}

func TestElectionTallyFromLedger(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededChain(t), vote.NewMemoryStore(), newResolver(), testLogger())

	result, err := svc.ElectionTally(ctx, testElection)
	require.NoError(t, err)

	assert.Equal(t, testElection, result.ElectionID)
	assert.Equal(t, SourceLedger, result.Source)
	assert.Equal(t, 4, result.TotalVotes)

	require.Len(t, result.Ballots, 2)
	assert.Equal(t, 1, result.Ballots[0].BallotNumber)
	assert.Equal(t, "Presidential Election", result.Ballots[0].Title)
	assert.Equal(t, 5, result.Ballots[1].BallotNumber)
	assert.Equal(t, "Governor", result.Ballots[1].Title)

	pres := result.Ballots[0].Positions
	require.Len(t, pres, 1)
	assert.Equal(t, 3, pres[0].TotalVotes)
	require.Len(t, pres[0].Candidates, 2)
	assert.Equal(t, "cand-a", pres[0].Candidates[0].CandidateID, "candidates sorted by votes descending")
	assert.Equal(t, 2, pres[0].Candidates[0].VoteCount)

	gov := result.Ballots[1].Positions
	require.Len(t, gov, 1)
	require.NotNil(t, gov[0].Location.County)
	assert.Equal(t, "Nairobi", *gov[0].Location.County)
}

func TestElectionTallyFallsBackToDatabase(t *testing.T) {
	ctx := context.Background()
	store := vote.NewMemoryStore()
	votes := []vote.Vote{
		{ID: "1", VoterID: "v1", ElectionID: testElection, PositionID: "pos-pres", CandidateID: "cand-a"},
		{ID: "2", VoterID: "v2", ElectionID: testElection, PositionID: "pos-pres", CandidateID: "cand-a"},
		{ID: "3", VoterID: "v3", ElectionID: testElection, PositionID: "pos-pres", CandidateID: "cand-b"},
		{ID: "4", VoterID: "v1", ElectionID: testElection, PositionID: "pos-gov", CandidateID: "cand-g"},
	}
	for _, v := range votes {
		require.NoError(t, store.Insert(ctx, v))
	}

	svc := NewService(offlineLedger{}, store, newResolver(), testLogger())
	result, err := svc.ElectionTally(ctx, testElection)
	require.NoError(t, err)

	assert.Equal(t, SourceDatabase, result.Source)
	assert.Equal(t, 4, result.TotalVotes)
	require.Len(t, result.Ballots, 2)
	assert.Equal(t, 3, result.Ballots[0].Positions[0].TotalVotes)
}

func TestLedgerAndDatabaseTalliesAgree(t *testing.T) {
	// The same casts through both sources must produce identical ballots.
	ctx := context.Background()
	chain := seededChain(t)

	store := vote.NewMemoryStore()
	casts := []vote.Vote{
		{ID: "1", VoterID: "v1", ElectionID: testElection, PositionID: "pos-pres", CandidateID: "cand-a"},
		{ID: "2", VoterID: "v2", ElectionID: testElection, PositionID: "pos-pres", CandidateID: "cand-a"},
		{ID: "3", VoterID: "v3", ElectionID: testElection, PositionID: "pos-pres", CandidateID: "cand-b"},
		{ID: "4", VoterID: "v1", ElectionID: testElection, PositionID: "pos-gov", CandidateID: "cand-g"},
	}
	for _, v := range casts {
		require.NoError(t, store.Insert(ctx, v))
	}

	fromLedger, err := NewService(chain, vote.NewMemoryStore(), newResolver(), testLogger()).ElectionTally(ctx, testElection)
	require.NoError(t, err)
	fromDB, err := NewService(offlineLedger{}, store, newResolver(), testLogger()).ElectionTally(ctx, testElection)
	require.NoError(t, err)

	assert.Equal(t, fromLedger.TotalVotes, fromDB.TotalVotes)
	assert.Equal(t, fromLedger.Ballots, fromDB.Ballots)
}

func TestElectionTallyToleratesUnknownCandidates(t *testing.T) {
	ctx := context.Background()
	chain := memchain.New(identity.NewAllocator(identity.NewMemoryStore(), identity.FreshKeyAddress), nil)
	_, err := chain.AppendVote(ctx, ledger.CompositeID(testElection, "pos-pres"), "cand-a", "v1")
	require.NoError(t, err)
	_, err = chain.AppendVote(ctx, ledger.CompositeID(testElection, "pos-pres"), "cand-ghost", "v2")
	require.NoError(t, err)

	svc := NewService(chain, vote.NewMemoryStore(), newResolver(), testLogger())
	result, err := svc.ElectionTally(ctx, testElection)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalVotes, "unknown candidates still count toward the total")
	require.Len(t, result.Ballots, 1)
	require.Len(t, result.Ballots[0].Positions[0].Candidates, 1, "unknown candidates are omitted from ballots")
}

func TestElectionTallyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(seededChain(t), vote.NewMemoryStore(), newResolver(), testLogger())

	first, err := svc.ElectionTally(ctx, testElection)
	require.NoError(t, err)
	second, err := svc.ElectionTally(ctx, testElection)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
