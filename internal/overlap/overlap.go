// Package overlap computes the common subset of several watchlists.
package overlap

import (
	"errors"
	"math/rand"
)

const (
	MinWatchlists = 2
	MaxWatchlists = 4
)

var (
	// ErrArgumentCount means the caller supplied fewer than two or more
	// than four watchlists.
	ErrArgumentCount = errors.New("between 2 and 4 watchlists required")

	// ErrEmptyOverlap is an expected outcome, not a fault: the supplied
	// watchlists simply share no titles.
	ErrEmptyOverlap = errors.New("no common titles")
)

// Intersect returns the titles present in every supplied watchlist.
// Matching is exact string equality; no casing or year normalization is
// attempted, so near-duplicate titles across users will not match. The
// result is deduplicated and ordered by first appearance in the first
// watchlist, which makes the output deterministic for a fixed input order.
func Intersect(watchlists ...[]string) ([]string, error) {
	if len(watchlists) < MinWatchlists || len(watchlists) > MaxWatchlists {
		return nil, ErrArgumentCount
	}

	rest := make([]map[string]struct{}, 0, len(watchlists)-1)
	for _, wl := range watchlists[1:] {
		set := make(map[string]struct{}, len(wl))
		for _, title := range wl {
			set[title] = struct{}{}
		}
		rest = append(rest, set)
	}

	seen := make(map[string]struct{})
	common := []string{}
	for _, title := range watchlists[0] {
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}

		inAll := true
		for _, set := range rest {
			if _, ok := set[title]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, title)
		}
	}
	return common, nil
}

// PickRandom selects one title uniformly at random, failing with
// ErrEmptyOverlap when there is nothing to pick from.
func PickRandom(overlap []string) (string, error) {
	if len(overlap) == 0 {
		return "", ErrEmptyOverlap
	}
	return overlap[rand.Intn(len(overlap))], nil
}
