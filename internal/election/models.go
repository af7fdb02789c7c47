package election

import (
	"time"

	"github.com/killm0ng3r/ClearVote-Kenya/internal/eligibility"
)

// PositionType enumerates the six contested offices on a Kenyan general
// election ballot.
type PositionType string

const (
	PositionPresident PositionType = "PRESIDENT"
	PositionGovernor  PositionType = "GOVERNOR"
	PositionSenator   PositionType = "SENATOR"
	PositionWomenRep  PositionType = "WOMEN_REP"
	PositionMP        PositionType = "MP"
	PositionMCA       PositionType = "MCA"
)

type Election struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     time.Time  `json:"endTime"`
	IsPublished bool       `json:"isPublished"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	Positions   []Position `json:"positions,omitempty"`
}

// Position is a contestable office. Exactly one scope field is non-nil,
// determined by Type: PRESIDENT has none, county-level offices set CountyID,
// MP sets ConstituencyID, MCA sets WardID.
type Position struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Type           PositionType `json:"positionType"`
	ElectionID     string       `json:"electionId"`
	CountyID       *int         `json:"countyId,omitempty"`
	ConstituencyID *string      `json:"constituencyId,omitempty"`
	WardID         *string      `json:"wardId,omitempty"`
	Candidates     []Candidate  `json:"candidates,omitempty"`
}

// Scope derives the tagged eligibility scope from the position's type and
// scope columns. It returns nil when the type is unknown or the column its
// type requires is missing, which the eligibility resolver treats as
// ineligible.
func (p Position) Scope() eligibility.Scope {
	switch p.Type {
	case PositionPresident:
		return eligibility.National{}
	case PositionGovernor, PositionSenator, PositionWomenRep:
		if p.CountyID == nil {
			return nil
		}
		return eligibility.County{ID: *p.CountyID}
	case PositionMP:
		if p.ConstituencyID == nil {
			return nil
		}
		return eligibility.Constituency{ID: *p.ConstituencyID}
	case PositionMCA:
		if p.WardID == nil {
			return nil
		}
		return eligibility.Ward{ID: *p.WardID}
	default:
		return nil
	}
}

type Candidate struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Party      string `json:"party"`
	Bio        string `json:"bio,omitempty"`
	PositionID string `json:"positionId"`
	ElectionID string `json:"electionId"`
}

// LocationNames carries the resolved place names for a position's scope,
// used when presenting tallies.
type LocationNames struct {
	County       *string `json:"county,omitempty"`
	Constituency *string `json:"constituency,omitempty"`
	Ward         *string `json:"ward,omitempty"`
}

// CandidateDetail is the joined row the tally aggregator works from: a
// candidate together with its position and the position's resolved location
// names.
type CandidateDetail struct {
	Candidate
	Position Position
	Location LocationNames
}
