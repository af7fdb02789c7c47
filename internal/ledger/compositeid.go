package ledger

import "strings"

// The ledger keys votes by a single flat string, while the engine thinks in
// (election, position) pairs. The translation is electionID + "-" +
// positionID, which lets one logical election carry several simultaneous
// contests. The exact inverse is not recoverable in general because ids may
// themselves contain dashes (UUIDs do), so the only supported inverse is the
// prefix match used for tally aggregation, plus a best-effort base-id split
// for statistics over UUID-keyed elections.

// CompositeID builds the ledger-side election key for one contest.
func CompositeID(electionID, positionID string) string {
	return electionID + "-" + positionID
}

// BelongsToElection reports whether a ledger composite id records a vote in
// the given logical election: either the bare election id (legacy entries)
// or any composite id with the election id prefix.
func BelongsToElection(compositeID, electionID string) bool {
	if compositeID == electionID {
		return true
	}
	return strings.HasPrefix(compositeID, electionID+"-")
}

const uuidLen = 36

// BaseElectionID extracts the logical election id from a composite id.
// It relies on election ids being canonical UUIDs (36 characters); composite
// ids that do not look like "<uuid>-<suffix>" are returned unchanged.
func BaseElectionID(compositeID string) string {
	if len(compositeID) > uuidLen && compositeID[uuidLen] == '-' {
		return compositeID[:uuidLen]
	}
	return compositeID
}
