// Package search holds the input side of a lookup: the debouncer that turns
// keystrokes into queries and the classifier that picks a render tier for a
// filtered result set.
package search

// Tier is one of the mutually exclusive render modes.
type Tier int

const (
	TierEmpty Tier = iota
	TierSingle
	TierList
	TierMany
)

// Fixed result-count policy. At TooManyThreshold or more results the user is
// asked to narrow the query instead of getting a long list.
const (
	SingleThreshold  = 1
	TooManyThreshold = 10
)

func (t Tier) String() string {
	switch t {
	case TierEmpty:
		return "empty"
	case TierSingle:
		return "single"
	case TierList:
		return "list"
	case TierMany:
		return "many"
	default:
		return "unknown"
	}
}

// Classify picks the tier for a filtered result set.
func Classify[T any](filtered []T) Tier {
	return ClassifyCount(len(filtered))
}

// ClassifyCount picks the tier for a result count.
func ClassifyCount(n int) Tier {
	switch {
	case n <= 0:
		return TierEmpty
	case n >= TooManyThreshold:
		return TierMany
	case n == SingleThreshold:
		return TierSingle
	default:
		return TierList
	}
}
