// Package tally aggregates vote counts into the six-ballot structure of a
// Kenyan general election. The ledger is the preferred source; when it is
// unreachable the relational store serves the same numbers.
package tally

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/election"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
)

const (
	SourceLedger   = "blockchain"
	SourceDatabase = "database"
)

type CandidateResult struct {
	CandidateID   string `json:"candidateId"`
	CandidateName string `json:"candidateName"`
	Party         string `json:"party"`
	VoteCount     int    `json:"voteCount"`
}

type PositionResult struct {
	PositionID   string                 `json:"positionId"`
	Title        string                 `json:"title"`
	PositionType election.PositionType  `json:"positionType"`
	Location     election.LocationNames `json:"location"`
	Candidates   []CandidateResult      `json:"candidates"`
	TotalVotes   int                    `json:"totalVotes"`
}

type Ballot struct {
	BallotNumber int              `json:"ballotNumber"`
	Title        string           `json:"title"`
	Positions    []PositionResult `json:"positions"`
}

type Result struct {
	ElectionID string   `json:"electionId"`
	Ballots    []Ballot `json:"ballots"`
	TotalVotes int      `json:"totalVotes"`
	Source     string   `json:"source"`
}

// ballotOrder fixes the presentation order of the six ballot papers.
var ballotOrder = []struct {
	number int
	title  string
	ptype  election.PositionType
}{
	{1, "Presidential Election", election.PositionPresident},
	{2, "Member of Parliament (MP)", election.PositionMP},
	{3, "Senator", election.PositionSenator},
	{4, "Woman Representative", election.PositionWomenRep},
	{5, "Governor", election.PositionGovernor},
	{6, "Member of County Assembly (MCA)", election.PositionMCA},
}

// FallbackCounter is the relational tally source.
type FallbackCounter interface {
	TallyByCandidate(ctx context.Context, electionID string) (map[string]int, error)
}

// CandidateResolver joins candidate ids to candidate and position details.
type CandidateResolver interface {
	CandidatesWithPosition(ctx context.Context, ids []string) ([]election.CandidateDetail, error)
}

type Service struct {
	ledger   ledger.Client
	fallback FallbackCounter
	catalog  CandidateResolver
	log      *slog.Logger
}

func NewService(ledgerClient ledger.Client, fallback FallbackCounter, catalog CandidateResolver, log *slog.Logger) *Service {
	return &Service{ledger: ledgerClient, fallback: fallback, catalog: catalog, log: log}
}

// ElectionTally builds the ballot-structured tally for one election. It is
// read-only and idempotent: repeated calls over unchanged data return
// identical results.
func (s *Service) ElectionTally(ctx context.Context, electionID string) (Result, error) {
	counts, source, err := s.counts(ctx, electionID)
	if err != nil {
		return Result{}, err
	}

	ids := make([]string, 0, len(counts))
	total := 0
	byID := make(map[string]int, len(counts))
	for _, c := range counts {
		ids = append(ids, c.CandidateID)
		byID[c.CandidateID] = c.VoteCount
		total += c.VoteCount
	}

	details, err := s.catalog.CandidatesWithPosition(ctx, ids)
	if err != nil {
		return Result{}, fmt.Errorf("resolve tally candidates: %w", err)
	}

	return Result{
		ElectionID: electionID,
		Ballots:    buildBallots(details, byID),
		TotalVotes: total,
		Source:     source,
	}, nil
}

// counts fetches per-candidate totals, preferring the ledger. Ledger entries
// for candidates the catalog has never seen drop out later during
// resolution; the totals still include them.
func (s *Service) counts(ctx context.Context, electionID string) ([]ledger.CandidateCount, string, error) {
	if s.ledger.IsConnected(ctx) {
		counts, err := s.ledger.TallyForElection(ctx, electionID)
		if err == nil {
			return counts, SourceLedger, nil
		}
		s.log.WarnContext(ctx, "ledger tally failed, falling back to database", "error", err)
	}

	byCandidate, err := s.fallback.TallyByCandidate(ctx, electionID)
	if err != nil {
		return nil, "", fmt.Errorf("database tally: %w", err)
	}
	ids := make([]string, 0, len(byCandidate))
	for id := range byCandidate {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	counts := make([]ledger.CandidateCount, 0, len(ids))
	for _, id := range ids {
		counts = append(counts, ledger.CandidateCount{CandidateID: id, VoteCount: byCandidate[id]})
	}
	return counts, SourceDatabase, nil
}

func buildBallots(details []election.CandidateDetail, votes map[string]int) []Ballot {
	type group struct {
		position election.Position
		location election.LocationNames
		results  []CandidateResult
	}
	groups := make(map[string]*group)
	var order []string

	for _, d := range details {
		g, ok := groups[d.Position.ID]
		if !ok {
			g = &group{position: d.Position, location: d.Location}
			groups[d.Position.ID] = g
			order = append(order, d.Position.ID)
		}
		g.results = append(g.results, CandidateResult{
			CandidateID:   d.ID,
			CandidateName: d.Name,
			Party:         d.Party,
			VoteCount:     votes[d.ID],
		})
	}

	byType := make(map[election.PositionType][]PositionResult)
	for _, id := range order {
		g := groups[id]
		// Stable sort keeps ties in resolution order, so repeated tallies
		// present tied candidates identically.
		sort.SliceStable(g.results, func(i, j int) bool {
			return g.results[i].VoteCount > g.results[j].VoteCount
		})
		total := 0
		for _, r := range g.results {
			total += r.VoteCount
		}
		byType[g.position.Type] = append(byType[g.position.Type], PositionResult{
			PositionID:   g.position.ID,
			Title:        g.position.Title,
			PositionType: g.position.Type,
			Location:     g.location,
			Candidates:   g.results,
			TotalVotes:   total,
		})
	}

	ballots := make([]Ballot, 0, len(ballotOrder))
	for _, b := range ballotOrder {
		positions := byType[b.ptype]
		if len(positions) == 0 {
			continue
		}
		ballots = append(ballots, Ballot{BallotNumber: b.number, Title: b.title, Positions: positions})
	}
	return ballots
}
