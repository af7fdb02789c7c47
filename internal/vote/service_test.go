package vote

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/audit"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/election"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/eligibility"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/identity"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger/memchain"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

type fakeCatalog struct {
	candidates map[string]election.Candidate
	positions  map[string]election.Position
}

func (c *fakeCatalog) GetCandidate(ctx context.Context, id string) (election.Candidate, error) {
	cand, ok := c.candidates[id]
	if !ok {
		return election.Candidate{}, sentinel.ErrNotFound
	}
	return cand, nil
}

func (c *fakeCatalog) GetPosition(ctx context.Context, id string) (election.Position, error) {
	pos, ok := c.positions[id]
	if !ok {
		return election.Position{}, sentinel.ErrNotFound
	}
	return pos, nil
}

type fakeDirectory struct {
	voters map[string]Voter
}

func (d *fakeDirectory) FindVoter(ctx context.Context, id string) (Voter, error) {
	v, ok := d.voters[id]
	if !ok {
		return Voter{}, sentinel.ErrNotFound
	}
	return v, nil
}

// brokenLedger reports connected but fails every append.
type brokenLedger struct{}

func (brokenLedger) IsConnected(ctx context.Context) bool { return true }
func (brokenLedger) AppendVote(ctx context.Context, compositeElectionID, candidateID, voterID string) (string, error) {
	return "", ledger.ErrNotConnected
}
func (brokenLedger) ReadAllVotes(ctx context.Context) ([]ledger.Entry, error) {
	return nil, ledger.ErrNotConnected
}
func (brokenLedger) TallyForElection(ctx context.Context, electionID string) ([]ledger.CandidateCount, error) {
	return nil, ledger.ErrNotConnected
}
func (brokenLedger) NetworkInfo(ctx context.Context) ledger.NetworkInfo {
	return ledger.NetworkInfo{}
}

const (
	testElection = "election-1"
	testVoter    = "voter-1"
)

func intPtr(i int) *int        { return &i }
func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testChain() *memchain.Chain {
	return memchain.New(identity.NewAllocator(identity.NewMemoryStore(), identity.FreshKeyAddress), nil)
}

func newFixture(ledgerClient ledger.Client) (*Service, *MemoryStore, *audit.MemorySink) {
	catalog := &fakeCatalog{
		candidates: map[string]election.Candidate{
			"cand-pres": {ID: "cand-pres", Name: "A. President", PositionID: "pos-pres", ElectionID: testElection},
			"cand-gov":  {ID: "cand-gov", Name: "B. Governor", PositionID: "pos-gov", ElectionID: testElection},
			"cand-far":  {ID: "cand-far", Name: "C. Faraway", PositionID: "pos-gov-far", ElectionID: testElection},
		},
		positions: map[string]election.Position{
			"pos-pres":    {ID: "pos-pres", Title: "President of Kenya", Type: election.PositionPresident, ElectionID: testElection},
			"pos-gov":     {ID: "pos-gov", Title: "Governor Nairobi", Type: election.PositionGovernor, ElectionID: testElection, CountyID: intPtr(47)},
			"pos-gov-far": {ID: "pos-gov-far", Title: "Governor Mombasa", Type: election.PositionGovernor, ElectionID: testElection, CountyID: intPtr(1)},
		},
	}
	directory := &fakeDirectory{
		voters: map[string]Voter{
			testVoter: {ID: testVoter, Name: "Wanjiku", Location: eligibility.Location{CountyID: 47, ConstituencyID: "const-1", WardID: "ward-1"}},
			"voter-unregistered": {ID: "voter-unregistered", Name: "No Location"},
		},
	}
	store := NewMemoryStore()
	sink := audit.NewMemorySink()
	svc := NewService(store, catalog, directory, ledgerClient, sink, 100*time.Millisecond, nil, testLogger())
	return svc, store, sink
}

func TestCastVotesAdmitsAndReturnsReceipt(t *testing.T) {
	ctx := context.Background()
	svc, store, sink := newFixture(testChain())

	receipts, err := svc.CastVotes(ctx, testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
	})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, testElection, receipts[0].ElectionID)
	assert.Equal(t, "cand-pres", receipts[0].CandidateID)
	require.NotNil(t, receipts[0].TransactionHash)
	assert.NotEmpty(t, *receipts[0].TransactionHash)

	votes := store.All()
	require.Len(t, votes, 1)
	assert.Equal(t, "pos-pres", votes[0].PositionID)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventVoteCast, events[0].Type)
}

func TestCastVotesRejectsEmptyBallot(t *testing.T) {
	svc, _, _ := newFixture(testChain())
	_, err := svc.CastVotes(context.Background(), testVoter, nil)
	assert.True(t, domerrors.Is(err, domerrors.CodeBadRequest))
}

func TestCastVotesUnknownVoter(t *testing.T) {
	svc, _, _ := newFixture(testChain())
	_, err := svc.CastVotes(context.Background(), "nobody", []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
	})
	assert.True(t, domerrors.Is(err, domerrors.CodeNotFound))
}

func TestCastVotesIncompleteLocation(t *testing.T) {
	svc, store, _ := newFixture(testChain())
	_, err := svc.CastVotes(context.Background(), "voter-unregistered", []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
	})
	require.Error(t, err)
	assert.True(t, domerrors.Is(err, domerrors.CodeBadRequest))
	assert.Contains(t, domerrors.MessageOf(err), "location not set")
	assert.Empty(t, store.All())
}

func TestCastVotesUnknownCandidate(t *testing.T) {
	svc, _, _ := newFixture(testChain())
	_, err := svc.CastVotes(context.Background(), testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-ghost"},
	})
	assert.True(t, domerrors.Is(err, domerrors.CodeNotFound))
}

func TestCastVotesIneligibleLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	chain := testChain()
	svc, store, _ := newFixture(chain)

	_, err := svc.CastVotes(ctx, testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-far"},
	})
	require.Error(t, err)
	assert.True(t, domerrors.Is(err, domerrors.CodeForbidden))
	assert.Contains(t, domerrors.MessageOf(err), "Governor Mombasa")

	assert.Empty(t, store.All())
	entries, err := chain.ReadAllVotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "an ineligible vote must never reach the ledger")
}

func TestCastVotesBatchIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	chain := testChain()
	svc, store, _ := newFixture(chain)

	_, err := svc.CastVotes(ctx, testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
		{ElectionID: testElection, CandidateID: "cand-far"},
	})
	require.Error(t, err)

	assert.Empty(t, store.All(), "a rejected ballot persists nothing")
	entries, err := chain.ReadAllVotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCastVotesRejectsDuplicateContest(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newFixture(testChain())

	_, err := svc.CastVotes(ctx, testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
	})
	require.NoError(t, err)

	// A second cast for the same position, even for the same candidate.
	_, err = svc.CastVotes(ctx, testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
	})
	require.Error(t, err)
	assert.True(t, domerrors.Is(err, domerrors.CodeConflict))
	assert.Len(t, store.All(), 1)
}

func TestCastVotesRejectsDuplicateWithinBallot(t *testing.T) {
	svc, store, _ := newFixture(testChain())
	_, err := svc.CastVotes(context.Background(), testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
		{ElectionID: testElection, CandidateID: "cand-pres"},
	})
	require.Error(t, err)
	assert.True(t, domerrors.Is(err, domerrors.CodeConflict))
	assert.Empty(t, store.All())
}

func TestCastVotesDifferentPositionsSameElection(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newFixture(testChain())

	receipts, err := svc.CastVotes(ctx, testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
		{ElectionID: testElection, CandidateID: "cand-gov"},
	})
	require.NoError(t, err)
	assert.Len(t, receipts, 2)
	assert.Len(t, store.All(), 2)
}

func TestCastVotesLedgerFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newFixture(brokenLedger{})

	receipts, err := svc.CastVotes(ctx, testVoter, []BallotItem{
		{ElectionID: testElection, CandidateID: "cand-pres"},
	})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Nil(t, receipts[0].TransactionHash, "no transaction hash when the ledger append fails")
	assert.Len(t, store.All(), 1, "the database write still happens")
}

func TestCastVotesConcurrentDuplicateAdmitsExactlyOne(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newFixture(testChain())

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CastVotes(ctx, testVoter, []BallotItem{
				{ElectionID: testElection, CandidateID: "cand-pres"},
			})
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !domerrors.Is(err, domerrors.CodeConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent cast may win")
	assert.Len(t, store.All(), 1)
}
