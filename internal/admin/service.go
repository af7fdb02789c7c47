// Package admin serves the electoral commission's oversight surface:
// anonymized ledger dumps, per-election reconciliation reports, voting
// statistics and result exports. Voter addresses never leave this package;
// every view strips them before enrichment.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/election"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

const (
	unknownElection  = "Unknown Election"
	unknownCandidate = "Unknown Candidate"
	unknownPosition  = "Unknown Position"
	defaultParty     = "Independent"
)

type Service struct {
	ledger    ledger.Client
	elections election.Store
	log       *slog.Logger
}

func NewService(ledgerClient ledger.Client, elections election.Store, log *slog.Logger) *Service {
	return &Service{ledger: ledgerClient, elections: elections, log: log}
}

// AnonymizedVote is a ledger entry with the voter address removed and
// catalog details attached.
type AnonymizedVote struct {
	VoteID         string `json:"voteId"`
	ElectionID     string `json:"electionId"`
	CandidateID    string `json:"candidateId"`
	ElectionTitle  string `json:"electionTitle"`
	CandidateName  string `json:"candidateName"`
	CandidateParty string `json:"candidateParty"`
	Position       string `json:"position"`
}

type ResultsReport struct {
	TotalVotes int              `json:"totalVotes"`
	Votes      []AnonymizedVote `json:"votes"`
}

// AllResults returns every ledger vote, anonymized and enriched.
func (s *Service) AllResults(ctx context.Context) (ResultsReport, error) {
	entries, err := s.ledger.ReadAllVotes(ctx)
	if err != nil {
		return ResultsReport{}, domerrors.Wrap(domerrors.CodeUnavailable, "Failed to fetch blockchain results", err)
	}

	votes := make([]AnonymizedVote, 0, len(entries))
	enricher := s.newEnricher()
	for i, e := range entries {
		votes = append(votes, enricher.enrich(ctx, fmt.Sprintf("vote_%d", i+1), e))
	}
	return ResultsReport{TotalVotes: len(votes), Votes: votes}, nil
}

type TallyRow struct {
	CandidateID    string `json:"candidateId"`
	CandidateName  string `json:"candidateName"`
	CandidateParty string `json:"candidateParty"`
	Position       string `json:"position"`
	VoteCount      int    `json:"voteCount"`
}

type ElectionReport struct {
	Election   election.Election `json:"election"`
	TotalVotes int               `json:"totalVotes"`
	Tally      []TallyRow        `json:"tally"`
	Votes      []AnonymizedVote  `json:"votes"`
}

// ElectionResults reconciles one election's ledger record against the
// catalog.
func (s *Service) ElectionResults(ctx context.Context, electionID string) (ElectionReport, error) {
	elec, err := s.elections.GetElection(ctx, electionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ElectionReport{}, domerrors.New(domerrors.CodeNotFound, "Election not found")
		}
		return ElectionReport{}, fmt.Errorf("get election: %w", err)
	}

	counts, err := s.ledger.TallyForElection(ctx, electionID)
	if err != nil {
		return ElectionReport{}, domerrors.Wrap(domerrors.CodeUnavailable, "Failed to fetch blockchain results", err)
	}
	tally, err := s.enrichTally(ctx, counts)
	if err != nil {
		return ElectionReport{}, err
	}

	entries, err := s.ledger.ReadAllVotes(ctx)
	if err != nil {
		return ElectionReport{}, domerrors.Wrap(domerrors.CodeUnavailable, "Failed to fetch blockchain results", err)
	}
	enricher := s.newEnricher()
	var votes []AnonymizedVote
	for _, e := range entries {
		if !ledger.BelongsToElection(e.ElectionID, electionID) {
			continue
		}
		votes = append(votes, enricher.enrich(ctx, fmt.Sprintf("%s_vote_%d", electionID, len(votes)+1), e))
	}

	return ElectionReport{Election: elec, TotalVotes: len(votes), Tally: tally, Votes: votes}, nil
}

func (s *Service) enrichTally(ctx context.Context, counts []ledger.CandidateCount) ([]TallyRow, error) {
	ids := make([]string, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.CandidateID)
	}
	details, err := s.elections.CandidatesWithPosition(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve tally candidates: %w", err)
	}
	byID := make(map[string]election.CandidateDetail, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	rows := make([]TallyRow, 0, len(counts))
	for _, c := range counts {
		row := TallyRow{
			CandidateID:    c.CandidateID,
			CandidateName:  unknownCandidate,
			CandidateParty: defaultParty,
			Position:       unknownPosition,
			VoteCount:      c.VoteCount,
		}
		if d, ok := byID[c.CandidateID]; ok {
			row.CandidateName = d.Name
			if d.Party != "" {
				row.CandidateParty = d.Party
			}
			row.Position = d.Position.Title
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type ElectionStatistics struct {
	ElectionID string `json:"electionId"`
	Title      string `json:"title"`
	VoteCount  int    `json:"voteCount"`
	Contests   int    `json:"contests"`
}

type Statistics struct {
	TotalVotes  int                  `json:"totalVotes"`
	Elections   []ElectionStatistics `json:"elections"`
	NetworkInfo ledger.NetworkInfo   `json:"networkInfo"`
}

// Statistics aggregates ledger votes per logical election. Composite
// contest ids collapse onto their base election id.
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	entries, err := s.ledger.ReadAllVotes(ctx)
	if err != nil {
		return Statistics{}, domerrors.Wrap(domerrors.CodeUnavailable, "Failed to fetch blockchain results", err)
	}

	votesByElection := make(map[string]int)
	contestsByElection := make(map[string]map[string]bool)
	for _, e := range entries {
		base := ledger.BaseElectionID(e.ElectionID)
		votesByElection[base]++
		if contestsByElection[base] == nil {
			contestsByElection[base] = make(map[string]bool)
		}
		contestsByElection[base][e.ElectionID] = true
	}

	ids := make([]string, 0, len(votesByElection))
	for id := range votesByElection {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stats := Statistics{TotalVotes: len(entries), NetworkInfo: s.ledger.NetworkInfo(ctx)}
	for _, id := range ids {
		title := unknownElection
		if elec, err := s.elections.GetElection(ctx, id); err == nil {
			title = elec.Title
		}
		stats.Elections = append(stats.Elections, ElectionStatistics{
			ElectionID: id,
			Title:      title,
			VoteCount:  votesByElection[id],
			Contests:   len(contestsByElection[id]),
		})
	}
	return stats, nil
}

type ExportRow struct {
	ElectionID     string `json:"electionId"`
	ElectionTitle  string `json:"electionTitle"`
	CandidateID    string `json:"candidateId"`
	CandidateName  string `json:"candidateName"`
	CandidateParty string `json:"candidateParty"`
	Position       string `json:"position"`
	VoteCount      int    `json:"voteCount"`
	ExportDate     string `json:"exportDate"`
}

// Export builds flat result rows for download. With an election id the rows
// cover that election's tally; without one they summarize every contest on
// the ledger.
func (s *Service) Export(ctx context.Context, electionID string) ([]ExportRow, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	if electionID != "" {
		report, err := s.ElectionResults(ctx, electionID)
		if err != nil {
			return nil, err
		}
		rows := make([]ExportRow, 0, len(report.Tally))
		for _, t := range report.Tally {
			rows = append(rows, ExportRow{
				ElectionID:     electionID,
				ElectionTitle:  report.Election.Title,
				CandidateID:    t.CandidateID,
				CandidateName:  t.CandidateName,
				CandidateParty: t.CandidateParty,
				Position:       t.Position,
				VoteCount:      t.VoteCount,
				ExportDate:     now,
			})
		}
		return rows, nil
	}

	entries, err := s.ledger.ReadAllVotes(ctx)
	if err != nil {
		return nil, domerrors.Wrap(domerrors.CodeUnavailable, "Failed to fetch blockchain results", err)
	}

	type key struct{ electionID, candidateID string }
	summary := make(map[key]int)
	var order []key
	for _, e := range entries {
		k := key{electionID: e.ElectionID, candidateID: e.CandidateID}
		if _, seen := summary[k]; !seen {
			order = append(order, k)
		}
		summary[k]++
	}

	enricher := s.newEnricher()
	rows := make([]ExportRow, 0, len(order))
	for _, k := range order {
		enriched := enricher.enrich(ctx, "", ledger.Entry{ElectionID: k.electionID, CandidateID: k.candidateID})
		rows = append(rows, ExportRow{
			ElectionID:     k.electionID,
			ElectionTitle:  enriched.ElectionTitle,
			CandidateID:    k.candidateID,
			CandidateName:  enriched.CandidateName,
			CandidateParty: enriched.CandidateParty,
			Position:       enriched.Position,
			VoteCount:      summary[k],
			ExportDate:     now,
		})
	}
	return rows, nil
}

// enricher memoizes catalog lookups across the entries of one report.
type enricher struct {
	svc        *Service
	elections  map[string]string
	candidates map[string]*election.CandidateDetail
}

func (s *Service) newEnricher() *enricher {
	return &enricher{
		svc:        s,
		elections:  make(map[string]string),
		candidates: make(map[string]*election.CandidateDetail),
	}
}

func (e *enricher) enrich(ctx context.Context, voteID string, entry ledger.Entry) AnonymizedVote {
	v := AnonymizedVote{
		VoteID:         voteID,
		ElectionID:     entry.ElectionID,
		CandidateID:    entry.CandidateID,
		ElectionTitle:  e.electionTitle(ctx, ledger.BaseElectionID(entry.ElectionID)),
		CandidateName:  unknownCandidate,
		CandidateParty: defaultParty,
		Position:       unknownPosition,
	}
	if d := e.candidate(ctx, entry.CandidateID); d != nil {
		v.CandidateName = d.Name
		if d.Party != "" {
			v.CandidateParty = d.Party
		}
		v.Position = d.Position.Title
	}
	return v
}

func (e *enricher) electionTitle(ctx context.Context, id string) string {
	if title, ok := e.elections[id]; ok {
		return title
	}
	title := unknownElection
	if elec, err := e.svc.elections.GetElection(ctx, id); err == nil {
		title = elec.Title
	}
	e.elections[id] = title
	return title
}

func (e *enricher) candidate(ctx context.Context, id string) *election.CandidateDetail {
	if d, ok := e.candidates[id]; ok {
		return d
	}
	details, err := e.svc.elections.CandidatesWithPosition(ctx, []string{id})
	if err != nil || len(details) == 0 {
		e.candidates[id] = nil
		return nil
	}
	e.candidates[id] = &details[0]
	return &details[0]
}
