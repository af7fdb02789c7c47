package geography

import "context"

// Store is the read-only source of the geographic hierarchy. The data is
// static reference material seeded out of band; nothing in the service
// mutates it.
type Store interface {
	Counties(ctx context.Context) ([]County, error)
	ConstituenciesByCounty(ctx context.Context, countyID int) ([]Constituency, error)
	WardsByConstituency(ctx context.Context, constituencyID string) ([]Ward, error)
	FullHierarchy(ctx context.Context) ([]CountyHierarchy, error)

	// Point lookups return sentinel.ErrNotFound for unknown ids.
	GetCounty(ctx context.Context, id int) (County, error)
	GetConstituency(ctx context.Context, id string) (Constituency, error)
	GetWard(ctx context.Context, id string) (Ward, error)
}
