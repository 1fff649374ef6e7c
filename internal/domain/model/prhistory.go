package model

import "time"

// PullRequestHistoryDisplayLimit is the number of entries shown to users.
const PullRequestHistoryDisplayLimit = 10

// PullRequestRecord is one entry of the append-only history of site template
// proposals. Entries are never removed automatically.
type PullRequestRecord struct {
	ID        int64
	URL       string
	CreatedAt time.Time
}
