package election

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// PostgresStore persists elections in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListElections(ctx context.Context) ([]Election, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, start_time, end_time, is_published, created_by, created_at
		FROM elections ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	defer rows.Close()

	var elections []Election
	for rows.Next() {
		var e Election
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.IsPublished, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan election: %w", err)
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range elections {
		positions, err := s.positionsForElection(ctx, elections[i].ID)
		if err != nil {
			return nil, err
		}
		elections[i].Positions = positions
	}
	return elections, nil
}

func (s *PostgresStore) GetElection(ctx context.Context, id string) (Election, error) {
	var e Election
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, start_time, end_time, is_published, created_by, created_at
		FROM elections WHERE id = $1`, id).
		Scan(&e.ID, &e.Title, &e.Description, &e.StartTime, &e.EndTime, &e.IsPublished, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Election{}, sentinel.ErrNotFound
		}
		return Election{}, fmt.Errorf("get election: %w", err)
	}
	positions, err := s.positionsForElection(ctx, e.ID)
	if err != nil {
		return Election{}, err
	}
	e.Positions = positions
	return e, nil
}

func (s *PostgresStore) positionsForElection(ctx context.Context, electionID string) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, position_type, election_id, county_id, constituency_id, ward_id
		FROM positions WHERE election_id = $1`, electionID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.Title, &p.Type, &p.ElectionID, &p.CountyID, &p.ConstituencyID, &p.WardID); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range positions {
		candidates, err := s.candidatesForPosition(ctx, positions[i].ID)
		if err != nil {
			return nil, err
		}
		positions[i].Candidates = candidates
	}
	return positions, nil
}

func (s *PostgresStore) candidatesForPosition(ctx context.Context, positionID string) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, COALESCE(party, ''), COALESCE(bio, ''), position_id, election_id
		FROM candidates WHERE position_id = $1`, positionID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ID, &c.Name, &c.Party, &c.Bio, &c.PositionID, &c.ElectionID); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// CreateElection inserts the election with its positions and candidates in a
// single transaction so a half-created ballot never becomes visible.
func (s *PostgresStore) CreateElection(ctx context.Context, e Election) (Election, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Election{}, fmt.Errorf("begin create election: %w", err)
	}
	defer tx.Rollback()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO elections (id, title, description, start_time, end_time, is_published, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Title, e.Description, e.StartTime, e.EndTime, e.IsPublished, e.CreatedBy, e.CreatedAt)
	if err != nil {
		return Election{}, fmt.Errorf("insert election: %w", err)
	}

	for i := range e.Positions {
		p := &e.Positions[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.ElectionID = e.ID
		_, err = tx.ExecContext(ctx, `
			INSERT INTO positions (id, title, position_type, election_id, county_id, constituency_id, ward_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, p.Title, p.Type, p.ElectionID, p.CountyID, p.ConstituencyID, p.WardID)
		if err != nil {
			return Election{}, fmt.Errorf("insert position: %w", err)
		}
		for j := range p.Candidates {
			c := &p.Candidates[j]
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			c.PositionID = p.ID
			c.ElectionID = e.ID
			_, err = tx.ExecContext(ctx, `
				INSERT INTO candidates (id, name, party, bio, position_id, election_id)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				c.ID, c.Name, c.Party, c.Bio, c.PositionID, c.ElectionID)
			if err != nil {
				return Election{}, fmt.Errorf("insert candidate: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Election{}, fmt.Errorf("commit create election: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) GetCandidate(ctx context.Context, id string) (Candidate, error) {
	var c Candidate
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(party, ''), COALESCE(bio, ''), position_id, election_id
		FROM candidates WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Party, &c.Bio, &c.PositionID, &c.ElectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Candidate{}, sentinel.ErrNotFound
		}
		return Candidate{}, fmt.Errorf("get candidate: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetPosition(ctx context.Context, id string) (Position, error) {
	var p Position
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, position_type, election_id, county_id, constituency_id, ward_id
		FROM positions WHERE id = $1`, id).
		Scan(&p.ID, &p.Title, &p.Type, &p.ElectionID, &p.CountyID, &p.ConstituencyID, &p.WardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Position{}, sentinel.ErrNotFound
		}
		return Position{}, fmt.Errorf("get position: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) CandidatesWithPosition(ctx context.Context, ids []string) ([]CandidateDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(c.party, ''), c.position_id, c.election_id,
		       p.id, p.title, p.position_type, p.election_id, p.county_id, p.constituency_id, p.ward_id,
		       co.name, cn.name, w.name
		FROM candidates c
		JOIN positions p ON p.id = c.position_id
		LEFT JOIN counties co ON co.id = p.county_id
		LEFT JOIN constituencies cn ON cn.id = p.constituency_id
		LEFT JOIN wards w ON w.id = p.ward_id
		WHERE c.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("candidates with position: %w", err)
	}
	defer rows.Close()

	var details []CandidateDetail
	for rows.Next() {
		var d CandidateDetail
		err := rows.Scan(
			&d.Candidate.ID, &d.Candidate.Name, &d.Candidate.Party, &d.Candidate.PositionID, &d.Candidate.ElectionID,
			&d.Position.ID, &d.Position.Title, &d.Position.Type, &d.Position.ElectionID,
			&d.Position.CountyID, &d.Position.ConstituencyID, &d.Position.WardID,
			&d.Location.County, &d.Location.Constituency, &d.Location.Ward)
		if err != nil {
			return nil, fmt.Errorf("scan candidate detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
