package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var nairobiWestlands = Location{
	CountyID:       47,
	ConstituencyID: "westlands",
	WardID:         "kitisuru",
}

func TestNationalScopeAlwaysEligible(t *testing.T) {
	assert.True(t, IsEligible(nairobiWestlands, National{}))
	assert.True(t, IsEligible(Location{CountyID: 1, ConstituencyID: "mvita", WardID: "mji-wa-kale"}, National{}))
	assert.True(t, IsEligible(Location{}, National{}))
}

func TestCountyScope(t *testing.T) {
	assert.True(t, IsEligible(nairobiWestlands, County{ID: 47}))
	assert.False(t, IsEligible(nairobiWestlands, County{ID: 1}))
}

func TestConstituencyScope(t *testing.T) {
	assert.True(t, IsEligible(nairobiWestlands, Constituency{ID: "westlands"}))
	assert.False(t, IsEligible(nairobiWestlands, Constituency{ID: "mvita"}))
}

func TestWardScope(t *testing.T) {
	assert.True(t, IsEligible(nairobiWestlands, Ward{ID: "kitisuru"}))
	assert.False(t, IsEligible(nairobiWestlands, Ward{ID: "parklands"}))
}

type bogusScope struct{}

func (bogusScope) isScope() {}

func TestFailsClosedOnUnknownScope(t *testing.T) {
	assert.False(t, IsEligible(nairobiWestlands, nil))
	assert.False(t, IsEligible(nairobiWestlands, bogusScope{}))
}

func TestLocationComplete(t *testing.T) {
	assert.True(t, nairobiWestlands.Complete())
	assert.False(t, Location{CountyID: 47, ConstituencyID: "westlands"}.Complete())
	assert.False(t, Location{ConstituencyID: "westlands", WardID: "kitisuru"}.Complete())
	assert.False(t, Location{}.Complete())
}
