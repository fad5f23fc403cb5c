package project

import "time"

// Project is a (website, account) pair that is voted for periodically.
type Project struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Username  string        `json:"username"`
	URL       string        `json:"url"`
	Interval  time.Duration `json:"interval"`
	Enabled   bool          `json:"enabled"`
	LastVote  *time.Time    `json:"last_vote,omitempty"`
	VoteCount int64         `json:"vote_count"`
}

// NextVoteTime returns when the project's cooldown ends. ok is false for projects that never voted.
func (p Project) NextVoteTime() (next time.Time, ok bool) {
	if p.LastVote == nil {
		return time.Time{}, false
	}
	return p.LastVote.Add(p.Interval), true
}

// Summary is the short status view of all projects.
type Summary struct {
	TotalProjects  int
	ActiveProjects int
	EligibleNow    int
	// NextVote is zero when no enabled project is cooling down.
	NextVote time.Time
}
