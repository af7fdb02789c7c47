package eligibility

// Location is a voter's registered place in the hierarchy. All three fields
// are set once registration completes; the admission engine rejects voters
// with an incomplete location before eligibility is ever evaluated.
type Location struct {
	CountyID       int
	ConstituencyID string
	WardID         string
}

// Scope is the geographic level at which a position is contested, as a
// tagged variant so the resolver can match exhaustively instead of poking at
// nullable id columns.
type Scope interface {
	isScope()
}

// National positions (the presidency) are open to every registered voter.
type National struct{}

// County scopes cover governor, senator and women representative races.
type County struct {
	ID int
}

// Constituency scopes cover member-of-parliament races.
type Constituency struct {
	ID string
}

// Ward scopes cover member-of-county-assembly races.
type Ward struct {
	ID string
}

func (National) isScope()     {}
func (County) isScope()       {}
func (Constituency) isScope() {}
func (Ward) isScope()         {}

// IsEligible decides whether a voter at loc may vote in a position contested
// at scope. It has no side effects.
//
// A nil or unrecognized scope is ineligible: an open default here would let
// any voter vote for a mis-tagged position, so the resolver fails closed.
func IsEligible(loc Location, scope Scope) bool {
	switch s := scope.(type) {
	case National:
		return true
	case County:
		return s.ID == loc.CountyID
	case Constituency:
		return s.ID == loc.ConstituencyID
	case Ward:
		return s.ID == loc.WardID
	default:
		return false
	}
}

// Complete reports whether every level of the location has been set.
func (l Location) Complete() bool {
	return l.CountyID != 0 && l.ConstituencyID != "" && l.WardID != ""
}
