package geography

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/killm0ng3r/ClearVote-Kenya/pkg/sentinel"
)

// PostgresStore serves the geography hierarchy from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Counties(ctx context.Context) ([]County, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM counties ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list counties: %w", err)
	}
	defer rows.Close()

	var counties []County
	for rows.Next() {
		var c County
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan county: %w", err)
		}
		counties = append(counties, c)
	}
	return counties, rows.Err()
}

func (s *PostgresStore) ConstituenciesByCounty(ctx context.Context, countyID int) ([]Constituency, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, county_id FROM constituencies WHERE county_id = $1 ORDER BY name ASC`, countyID)
	if err != nil {
		return nil, fmt.Errorf("list constituencies: %w", err)
	}
	defer rows.Close()

	var constituencies []Constituency
	for rows.Next() {
		var c Constituency
		if err := rows.Scan(&c.ID, &c.Name, &c.CountyID); err != nil {
			return nil, fmt.Errorf("scan constituency: %w", err)
		}
		constituencies = append(constituencies, c)
	}
	return constituencies, rows.Err()
}

func (s *PostgresStore) WardsByConstituency(ctx context.Context, constituencyID string) ([]Ward, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, constituency_id FROM wards WHERE constituency_id = $1 ORDER BY name ASC`, constituencyID)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	defer rows.Close()

	var wards []Ward
	for rows.Next() {
		var w Ward
		if err := rows.Scan(&w.ID, &w.Name, &w.ConstituencyID); err != nil {
			return nil, fmt.Errorf("scan ward: %w", err)
		}
		wards = append(wards, w)
	}
	return wards, rows.Err()
}

func (s *PostgresStore) GetCounty(ctx context.Context, id int) (County, error) {
	var c County
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM counties WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return County{}, sentinel.ErrNotFound
		}
		return County{}, fmt.Errorf("get county: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetConstituency(ctx context.Context, id string) (Constituency, error) {
	var c Constituency
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, county_id FROM constituencies WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.CountyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Constituency{}, sentinel.ErrNotFound
		}
		return Constituency{}, fmt.Errorf("get constituency: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetWard(ctx context.Context, id string) (Ward, error) {
	var w Ward
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, constituency_id FROM wards WHERE id = $1`, id).Scan(&w.ID, &w.Name, &w.ConstituencyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Ward{}, sentinel.ErrNotFound
		}
		return Ward{}, fmt.Errorf("get ward: %w", err)
	}
	return w, nil
}

// FullHierarchy loads the whole tree in three queries and assembles it in
// memory; the dataset is small (47 counties, ~1450 wards).
func (s *PostgresStore) FullHierarchy(ctx context.Context) ([]CountyHierarchy, error) {
	counties, err := s.Counties(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, county_id FROM constituencies ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list constituencies: %w", err)
	}
	defer rows.Close()

	byCounty := make(map[int][]ConstituencyHierarchy)
	byID := make(map[string]*ConstituencyHierarchy)
	for rows.Next() {
		var c Constituency
		if err := rows.Scan(&c.ID, &c.Name, &c.CountyID); err != nil {
			return nil, fmt.Errorf("scan constituency: %w", err)
		}
		byCounty[c.CountyID] = append(byCounty[c.CountyID], ConstituencyHierarchy{Constituency: c})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for countyID := range byCounty {
		for i := range byCounty[countyID] {
			byID[byCounty[countyID][i].ID] = &byCounty[countyID][i]
		}
	}

	wardRows, err := s.db.QueryContext(ctx, `SELECT id, name, constituency_id FROM wards ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list wards: %w", err)
	}
	defer wardRows.Close()
	for wardRows.Next() {
		var w Ward
		if err := wardRows.Scan(&w.ID, &w.Name, &w.ConstituencyID); err != nil {
			return nil, fmt.Errorf("scan ward: %w", err)
		}
		if parent, ok := byID[w.ConstituencyID]; ok {
			parent.Wards = append(parent.Wards, w)
		}
	}
	if err := wardRows.Err(); err != nil {
		return nil, err
	}

	out := make([]CountyHierarchy, 0, len(counties))
	for _, county := range counties {
		out = append(out, CountyHierarchy{County: county, Constituencies: byCounty[county.ID]})
	}
	return out, nil
}
