package bulk

// Failure describes one item the engine rejected.
type Failure struct {
	// Position is the item's offset in the submitted action list.
	Position int    `json:"position"`
	ID       string `json:"id,omitempty"`
	Reason   string `json:"reason"`
}

// Summary is the aggregate outcome of a batch.
// Skipped items succeeded at the engine but do not count for the batch kind,
// e.g. an index reported "updated" or a delete reported "not_found".
type Summary struct {
	Requested int       `json:"requested"`
	Succeeded int       `json:"succeeded"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}
