package geography

// The Kenyan electoral hierarchy is nation → county → constituency → ward.
// Counties carry their official numeric codes (1–47); constituencies and
// wards use generated string ids.

type County struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Constituency struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CountyID int    `json:"countyId"`
}

type Ward struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ConstituencyID string `json:"constituencyId"`
}

// CountyHierarchy is the fully nested read model served to registration UIs.
type CountyHierarchy struct {
	County
	Constituencies []ConstituencyHierarchy `json:"constituencies"`
}

type ConstituencyHierarchy struct {
	Constituency
	Wards []Ward `json:"wards"`
}
