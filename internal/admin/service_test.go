package admin

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
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixture(t *testing.T) (*Service, *memchain.Chain, election.Election) {
	t.Helper()
	ctx := context.Background()

	store := election.NewMemoryStore()
	elec, err := store.CreateElection(ctx, election.Election{
		Title: "General Election 2027",
		Positions: []election.Position{
			{
				Title: "President of Kenya",
				Type:  election.PositionPresident,
				Candidates: []election.Candidate{
					{Name: "A. Odhiambo", Party: "Party One"},
					{Name: "B. Mutiso", Party: "Party Two"},
				},
			},
		},
	})
	require.NoError(t, err)

	chain := memchain.New(identity.NewAllocator(identity.NewMemoryStore(), identity.FreshKeyAddress), nil)
	position := elec.Positions[0]
	composite := ledger.CompositeID(elec.ID, position.ID)
	casts := []struct{ candidate, voter string }{
		{position.Candidates[0].ID, "v1"},
		{position.Candidates[0].ID, "v2"},
		{position.Candidates[1].ID, "v3"},
	}
	for _, c := range casts {
		_, err := chain.AppendVote(ctx, composite, c.candidate, c.voter)
		require.NoError(t, err)
	}

	return NewService(chain, store, testLogger()), chain, elec
}

func TestAllResultsAnonymizesAndEnriches(t *testing.T) {
	ctx := context.Background()
	svc, _, elec := newFixture(t)

	report, err := svc.AllResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalVotes)
	require.Len(t, report.Votes, 3)

	first := report.Votes[0]
	assert.Equal(t, "vote_1", first.VoteID)
	assert.Equal(t, elec.Title, first.ElectionTitle)
	assert.Equal(t, "A. Odhiambo", first.CandidateName)
	assert.Equal(t, "Party One", first.CandidateParty)
	assert.Equal(t, "President of Kenya", first.Position)
}

func TestElectionResults(t *testing.T) {
	ctx := context.Background()
	svc, _, elec := newFixture(t)

	report, err := svc.ElectionResults(ctx, elec.ID)
	require.NoError(t, err)
	assert.Equal(t, elec.ID, report.Election.ID)
	assert.Equal(t, 3, report.TotalVotes)
	require.Len(t, report.Tally, 2)
	assert.Equal(t, "A. Odhiambo", report.Tally[0].CandidateName)
	assert.Equal(t, 2, report.Tally[0].VoteCount)
	require.Len(t, report.Votes, 3)
	assert.Equal(t, elec.ID+"_vote_1", report.Votes[0].VoteID)
}

func TestElectionResultsUnknownElection(t *testing.T) {
	svc, _, _ := newFixture(t)
	_, err := svc.ElectionResults(context.Background(), "nope")
	assert.True(t, domerrors.Is(err, domerrors.CodeNotFound))
}

func TestStatisticsGroupsByBaseElection(t *testing.T) {
	ctx := context.Background()
	svc, chain, elec := newFixture(t)

	// A second contest under the same election.
	_, err := chain.AppendVote(ctx, ledger.CompositeID(elec.ID, "pos-other"), "cand-x", "v1")
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalVotes)
	require.Len(t, stats.Elections, 1)
	assert.Equal(t, elec.ID, stats.Elections[0].ElectionID)
	assert.Equal(t, elec.Title, stats.Elections[0].Title)
	assert.Equal(t, 4, stats.Elections[0].VoteCount)
	assert.Equal(t, 2, stats.Elections[0].Contests)
	assert.True(t, stats.NetworkInfo.Connected)
}

func TestExportPerElection(t *testing.T) {
	ctx := context.Background()
	svc, _, elec := newFixture(t)

	rows, err := svc.Export(ctx, elec.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, elec.Title, rows[0].ElectionTitle)
	assert.Equal(t, 2, rows[0].VoteCount)
	assert.NotEmpty(t, rows[0].ExportDate)
}

func TestExportAllContests(t *testing.T) {
	ctx := context.Background()
	svc, _, elec := newFixture(t)

	rows, err := svc.Export(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ledger.CompositeID(elec.ID, elec.Positions[0].ID), rows[0].ElectionID)
	assert.Equal(t, elec.Title, rows[0].ElectionTitle)
}
