package stats

import (
	"context"
	"fmt"
	"sort"
)

// Lookup outcome constants
const (
	OutcomeResolved = "resolved"
	OutcomeFallback = "fallback"
)

// Lookup is one answered turn
type Lookup struct {
	Mode      string // "keyword" or "menu"
	RuleIndex int    // keyword mode, -1 for the default
	Keyword   string // deciding keyword or selected menu key
	Matched   bool
}

// Bucket is the counter field a lookup lands in
func (l Lookup) Bucket() string {
	if !l.Matched {
		return OutcomeFallback
	}
	if l.RuleIndex >= 0 {
		return fmt.Sprintf("rule:%d:%s", l.RuleIndex, l.Keyword)
	}
	return "option:" + l.Keyword
}

// Count is the hit count for one bucket
type Count struct {
	Mode    string `json:"mode"`
	Bucket  string `json:"bucket"`
	Outcome string `json:"outcome"`
	Hits    int64  `json:"hits"`
}

// Recorder counts which rules answer visitors
type Recorder interface {
	Record(ctx context.Context, lookup Lookup) error
	Snapshot(ctx context.Context) ([]Count, error)
}

func outcomeOf(bucket string) string {
	if bucket == OutcomeFallback {
		return OutcomeFallback
	}
	return OutcomeResolved
}

// sortCounts orders by hits, then mode and bucket for stable output
func sortCounts(counts []Count) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Hits != counts[j].Hits {
			return counts[i].Hits > counts[j].Hits
		}
		if counts[i].Mode != counts[j].Mode {
			return counts[i].Mode < counts[j].Mode
		}
		return counts[i].Bucket < counts[j].Bucket
	})
}
