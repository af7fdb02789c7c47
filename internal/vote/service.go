package vote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/audit"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/election"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/eligibility"
	"github.com/killm0ng3r/ClearVote-Kenya/internal/ledger"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/domerrors"
	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// Catalog is the read-only slice of the election store the admission engine
// needs.
type Catalog interface {
	GetCandidate(ctx context.Context, id string) (election.Candidate, error)
	GetPosition(ctx context.Context, id string) (election.Position, error)
}

// Rejection reasons, used as metric labels and audit detail.
const (
	reasonVoterNotFound     = "voter_not_found"
	reasonLocationNotSet    = "location_not_set"
	reasonCandidateNotFound = "candidate_not_found"
	reasonNotEligible       = "not_eligible"
	reasonAlreadyVoted      = "already_voted"
	reasonEmptyBallot       = "empty_ballot"
)

// Service admits votes. The relational store is authoritative; the ledger
// append is best-effort and its failure never blocks admission.
type Service struct {
	votes         Store
	catalog       Catalog
	voters        VoterDirectory
	ledger        ledger.Client
	audit         audit.Publisher
	ledgerTimeout time.Duration
	metrics       *Metrics
	log           *slog.Logger
}

func NewService(votes Store, catalog Catalog, voters VoterDirectory, ledgerClient ledger.Client, auditPub audit.Publisher, ledgerTimeout time.Duration, metrics *Metrics, log *slog.Logger) *Service {
	return &Service{
		votes:         votes,
		catalog:       catalog,
		voters:        voters,
		ledger:        ledgerClient,
		audit:         auditPub,
		ledgerTimeout: ledgerTimeout,
		metrics:       metrics,
		log:           log,
	}
}

// admission is one validated ballot item ready to commit.
type admission struct {
	item      BallotItem
	candidate election.Candidate
	position  election.Position
}

// CastVotes runs the full admission sequence for a ballot. Validation is
// all-or-nothing: every item is checked before any vote is persisted, so a
// rejected ballot leaves no partial state behind.
func (s *Service) CastVotes(ctx context.Context, voterID string, ballot []BallotItem) ([]Receipt, error) {
	if len(ballot) == 0 {
		s.metrics.VoteRejected(reasonEmptyBallot)
		return nil, domerrors.New(domerrors.CodeBadRequest, "Invalid votes data")
	}

	voter, err := s.voters.FindVoter(ctx, voterID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.reject(ctx, voterID, reasonVoterNotFound,
				domerrors.New(domerrors.CodeNotFound, "Voter not found"))
		}
		return nil, fmt.Errorf("resolve voter: %w", err)
	}
	if !voter.Location.Complete() {
		return nil, s.reject(ctx, voterID, reasonLocationNotSet,
			domerrors.New(domerrors.CodeBadRequest, "Voter location not set. Please update your profile."))
	}

	admissions, err := s.validate(ctx, voter, ballot)
	if err != nil {
		return nil, err
	}

	receipts := make([]Receipt, 0, len(admissions))
	for _, adm := range admissions {
		receipt, err := s.commit(ctx, voter, adm)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}

func (s *Service) validate(ctx context.Context, voter Voter, ballot []BallotItem) ([]admission, error) {
	admissions := make([]admission, 0, len(ballot))
	// seen guards against two selections for the same contest within one
	// ballot, which the per-item store check cannot catch before commit.
	seen := make(map[string]bool)

	for _, item := range ballot {
		candidate, err := s.catalog.GetCandidate(ctx, item.CandidateID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, s.reject(ctx, voter.ID, reasonCandidateNotFound,
					domerrors.Newf(domerrors.CodeNotFound, "Candidate %s not found", item.CandidateID))
			}
			return nil, fmt.Errorf("resolve candidate: %w", err)
		}

		position, err := s.catalog.GetPosition(ctx, candidate.PositionID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, s.reject(ctx, voter.ID, reasonCandidateNotFound,
					domerrors.Newf(domerrors.CodeNotFound, "Candidate %s not found", item.CandidateID))
			}
			return nil, fmt.Errorf("resolve position: %w", err)
		}

		if !eligibility.IsEligible(voter.Location, position.Scope()) {
			return nil, s.reject(ctx, voter.ID, reasonNotEligible,
				domerrors.Newf(domerrors.CodeForbidden,
					"You are not eligible to vote for %s (%s). This position is not available in your area.",
					position.Title, position.Type))
		}

		contest := contestKey(voter.ID, item.ElectionID, position.ID)
		if seen[contest] {
			return nil, s.reject(ctx, voter.ID, reasonAlreadyVoted, alreadyVotedError(position))
		}
		seen[contest] = true

		voted, err := s.votes.HasVoted(ctx, voter.ID, item.ElectionID, position.ID)
		if err != nil {
			return nil, fmt.Errorf("check existing vote: %w", err)
		}
		if voted {
			return nil, s.reject(ctx, voter.ID, reasonAlreadyVoted, alreadyVotedError(position))
		}

		admissions = append(admissions, admission{item: item, candidate: candidate, position: position})
	}
	return admissions, nil
}

func (s *Service) commit(ctx context.Context, voter Voter, adm admission) (Receipt, error) {
	txHash := s.appendToLedger(ctx, voter.ID, adm)

	v := Vote{
		ID:              uuid.NewString(),
		VoterID:         voter.ID,
		ElectionID:      adm.item.ElectionID,
		PositionID:      adm.position.ID,
		CandidateID:     adm.candidate.ID,
		TransactionHash: txHash,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.votes.Insert(ctx, v); err != nil {
		if errors.Is(err, sentinel.ErrDuplicate) {
			// Lost a race with a concurrent cast; the constraint is the
			// final arbiter.
			return Receipt{}, s.reject(ctx, voter.ID, reasonAlreadyVoted, alreadyVotedError(adm.position))
		}
		return Receipt{}, fmt.Errorf("persist vote: %w", err)
	}

	s.metrics.VoteAdmitted()
	s.publishAudit(ctx, audit.NewEvent(audit.EventVoteCast, voter.ID, adm.item.ElectionID, map[string]string{
		"candidateId": adm.candidate.ID,
		"positionId":  adm.position.ID,
	}))

	return Receipt{
		VoteID:          v.ID,
		ElectionID:      v.ElectionID,
		CandidateID:     v.CandidateID,
		TransactionHash: v.TransactionHash,
		Timestamp:       v.CreatedAt,
	}, nil
}

// appendToLedger records the vote on the ledger under the composite contest
// id. Ledger failures are logged and swallowed: the vote still counts once
// the database accepts it, and the ledger entry is simply absent from the
// audit trail.
func (s *Service) appendToLedger(ctx context.Context, voterID string, adm admission) *string {
	lctx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()

	if !s.ledger.IsConnected(lctx) {
		s.metrics.LedgerAppend("skipped")
		s.log.WarnContext(ctx, "ledger not connected, storing vote in database only")
		return nil
	}

	compositeID := ledger.CompositeID(adm.item.ElectionID, adm.position.ID)
	txHash, err := s.ledger.AppendVote(lctx, compositeID, adm.candidate.ID, voterID)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyVoted) {
			// The ledger holds a vote the database does not. Admission
			// proceeds on the database's verdict; the discrepancy is
			// surfaced through the drift counter.
			s.metrics.LedgerDrift()
		}
		s.metrics.LedgerAppend("failed")
		s.log.ErrorContext(ctx, "ledger vote append failed", "error", err, "election", adm.item.ElectionID)
		return nil
	}
	s.metrics.LedgerAppend("ok")
	s.log.InfoContext(ctx, "vote cast on ledger", "tx", txHash)
	return &txHash
}

func alreadyVotedError(position election.Position) error {
	return domerrors.Newf(domerrors.CodeConflict,
		"Already voted for %s position in this election", position.Title)
}

// reject records the rejection in metrics and the audit trail, then returns
// the domain error unchanged.
func (s *Service) reject(ctx context.Context, voterID, reason string, err error) error {
	s.metrics.VoteRejected(reason)
	s.publishAudit(ctx, audit.NewEvent(audit.EventVoteRejected, voterID, "", map[string]string{
		"reason": reason,
	}))
	return err
}

func (s *Service) publishAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Publish(ctx, event); err != nil {
		s.log.WarnContext(ctx, "audit publish failed", "error", err, "type", event.Type)
	}
}
