package domain

import "time"

// Reactions aggregates the per-kind reaction counters of a post. Counters
// absent from the upstream payload decode as zero.
type Reactions struct {
	Like  int64 `json:"like"`
	Love  int64 `json:"love"`
	Haha  int64 `json:"haha"`
	Wow   int64 `json:"wow"`
	Sad   int64 `json:"sad"`
	Angry int64 `json:"angry"`
}

// Total sums every reaction counter.
func (r Reactions) Total() int64 {
	return r.Like + r.Love + r.Haha + r.Wow + r.Sad + r.Angry
}

// Post is one agent post. ID is the sole identity. AgentID is not enforced
// referentially: posts may outlive their agent locally.
type Post struct {
	ID        int64     `json:"id"`
	AgentID   int64     `json:"userId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	Reactions Reactions `json:"reactions"`

	// CachedAt is the wall-clock time of the last local write.
	CachedAt time.Time `json:"-"`
}
