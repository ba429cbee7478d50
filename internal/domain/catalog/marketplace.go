package catalog

import (
	"math/rand/v2"
	"sort"
	"strings"
	"time"
)

// Marketplace sort keys
const (
	SortFeatured = "featured"
	SortNewest   = "newest"
	SortPopular  = "popular"
)

// Keywords splits a search string into lowercase keywords
func Keywords(search string) []string {
	return strings.Fields(strings.ToLower(strings.TrimSpace(search)))
}

// RelevanceScore weighs how well p matches the keywords: name matches count
// most, then category, subcategory and tags, then description. Products that
// match every keyword of a multi-word search get a bonus.
func RelevanceScore(p *Product, keywords []string) int {
	if len(keywords) == 0 {
		return 0
	}
	name := strings.ToLower(p.Name)
	desc := strings.ToLower(p.Description)
	category := strings.ToLower(p.Category)
	sub := strings.ToLower(p.Subcategory)

	score := 0
	for _, k := range keywords {
		switch {
		case name == k:
			score += 30
		case strings.HasPrefix(name, k):
			score += 20
		case strings.Contains(name, k):
			score += 10
		}

		if category == k {
			score += 15
		} else if strings.Contains(category, k) {
			score += 8
		}

		if sub != "" {
			if sub == k {
				score += 12
			} else if strings.Contains(sub, k) {
				score += 6
			}
		}

		if tagEquals(p.Tags, k) {
			score += 12
		} else if tagContains(p.Tags, k) {
			score += 6
		}

		if strings.Contains(desc, k) {
			score += 5
		}
	}

	if len(keywords) > 1 && matchesAll(p, keywords, name, desc, category, sub) {
		score += 15
	}
	return score
}

// MatchesKeywords reports whether every keyword appears somewhere in p
func MatchesKeywords(p *Product, keywords []string) bool {
	return matchesAll(p, keywords, strings.ToLower(p.Name), strings.ToLower(p.Description),
		strings.ToLower(p.Category), strings.ToLower(p.Subcategory))
}

func matchesAll(p *Product, keywords []string, name, desc, category, sub string) bool {
	for _, k := range keywords {
		if !(strings.Contains(name, k) || strings.Contains(desc, k) || tagContains(p.Tags, k) ||
			strings.Contains(category, k) || (sub != "" && strings.Contains(sub, k))) {
			return false
		}
	}
	return true
}

func tagEquals(tags []string, k string) bool {
	for _, t := range tags {
		if strings.ToLower(t) == k {
			return true
		}
	}
	return false
}

func tagContains(tags []string, k string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), k) {
			return true
		}
	}
	return false
}

// RankedProduct is a product with its marketplace ranking inputs
type RankedProduct struct {
	*Product
	IsBoosted           bool    `json:"is_boosted"`
	RemainingBoostHours float64 `json:"remaining_boost_hours"`
	RelevanceScore      int     `json:"relevance_score"`
}

// engagement weighs clicks twice as much as views
func (r RankedProduct) engagement() int64 {
	return r.Views + 2*r.Clicks
}

// Rank orders products for the marketplace. Boosted products come first,
// longest remaining boost first. The rest are ordered by relevance,
// engagement and recency, or shuffled with rnd when there is no search and
// the featured sort is requested.
func Rank(products []*Product, search, sortKey string, now time.Time, rnd *rand.Rand) []RankedProduct {
	keywords := Keywords(search)
	boosted := make([]RankedProduct, 0)
	rest := make([]RankedProduct, 0, len(products))
	for _, p := range products {
		r := RankedProduct{
			Product:             p,
			IsBoosted:           p.IsBoosted(now),
			RemainingBoostHours: p.RemainingBoostHours(now),
			RelevanceScore:      RelevanceScore(p, keywords),
		}
		if r.IsBoosted {
			boosted = append(boosted, r)
		} else {
			rest = append(rest, r)
		}
	}

	sort.SliceStable(boosted, func(i, j int) bool {
		return boosted[i].RemainingBoostHours > boosted[j].RemainingBoostHours
	})

	if len(keywords) == 0 && (sortKey == "" || sortKey == SortFeatured) && rnd != nil {
		rnd.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	} else {
		sort.SliceStable(rest, func(i, j int) bool {
			a, b := rest[i], rest[j]
			if len(keywords) > 0 && a.RelevanceScore != b.RelevanceScore {
				return a.RelevanceScore > b.RelevanceScore
			}
			if sortKey != SortNewest && a.engagement() != b.engagement() {
				return a.engagement() > b.engagement()
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
	}
	return append(boosted, rest...)
}
