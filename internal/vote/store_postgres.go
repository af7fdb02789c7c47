package vote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

const pqUniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, v Vote) error {
	query := `
		INSERT INTO votes (id, voter_id, election_id, position_id, candidate_id, transaction_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.VoterID, v.ElectionID, v.PositionID, v.CandidateID, v.TransactionHash, v.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasVoted(ctx context.Context, voterID, electionID, positionID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM votes
			WHERE voter_id = $1 AND election_id = $2 AND position_id = $3
		)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, voterID, electionID, positionID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check existing vote: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) TallyByCandidate(ctx context.Context, electionID string) (map[string]int, error) {
	query := `
		SELECT candidate_id, COUNT(*)
		FROM votes
		WHERE election_id = $1
		GROUP BY candidate_id`
	rows, err := s.db.QueryContext(ctx, query, electionID)
	if err != nil {
		return nil, fmt.Errorf("tally votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var candidateID string
		var n int
		if err := rows.Scan(&candidateID, &n); err != nil {
			return nil, fmt.Errorf("scan tally row: %w", err)
		}
		counts[candidateID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tally rows: %w", err)
	}
	return counts, nil
}
