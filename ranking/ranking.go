// Package ranking scores pairs of users by interaction frequency, shared
// hashtag overlap and keyword matches against a query.
package ranking

import (
	"math"
	"sort"
	"strings"
)

// overlap below this size is a flat baseline, not a bonus
const sameTagThreshold = 10

// Query is a free-text phrase and/or a target hashtag to match against the
// subject user's stored keyword entries. Phrase matching is case-sensitive
// as supplied, hashtag matching is case-folded.
type Query struct {
	Phrase  string
	Hashtag string
}

// Interaction carries reply/retweet counts between a subject user and
// another user.
type Interaction struct {
	SubjectID    int64
	OtherID      int64
	ReplyCount   int
	RetweetCount int
}

// Keyword is one stored keyword entry of a user.
type Keyword struct {
	Content  string
	Hashtags []string
}

type Score struct {
	SubjectID  int64
	OtherID    int64
	FinalScore float64
}

// Engine holds the popular-hashtag exclusion list. Popular tags are removed
// from both users' sets before intersecting, so ubiquitous tags don't
// inflate the overlap signal.
type Engine struct {
	popular map[string]struct{}
}

func New(popularTags []string) *Engine {
	popular := make(map[string]struct{}, len(popularTags))
	for _, t := range popularTags {
		popular[t] = struct{}{}
	}
	return &Engine{popular: popular}
}

// RecommendationScores computes a final score per interaction pair, drops
// pairs scoring zero and returns the rest sorted by score descending. Ties
// keep input order. Missing per-user hashtag or keyword data is treated as
// an empty set.
func (e *Engine) RecommendationScores(interactions []*Interaction, hashtagsByUser map[int64][]string, keywordsByUser map[int64][]*Keyword, q Query) []*Score {
	var results []*Score
	for _, in := range interactions {
		interaction := InteractionScore(in.ReplyCount, in.RetweetCount)
		hashtag := HashtagScore(e.sameTagCount(hashtagsByUser[in.SubjectID], hashtagsByUser[in.OtherID]))
		keyword := KeywordScore(countMatches(keywordsByUser[in.SubjectID], q))

		final := FinalScore(interaction, hashtag, keyword)
		if final > 0 {
			results = append(results, &Score{
				SubjectID:  in.SubjectID,
				OtherID:    in.OtherID,
				FinalScore: final,
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
	return results
}

// InteractionScore weights replies double over retweets, log-damped.
// Zero only when both counts are zero.
func InteractionScore(replyCount, retweetCount int) float64 {
	return math.Log(float64(1 + 2*replyCount + retweetCount))
}

// HashtagScore rewards overlap above the threshold and is a flat 1 below it.
func HashtagScore(sameTagCount int) float64 {
	if sameTagCount > sameTagThreshold {
		return 1 + math.Log(float64(1+sameTagCount-sameTagThreshold))
	}
	return 1
}

// KeywordScore gates the final score: zero matches means zero score.
func KeywordScore(numberOfMatches int) float64 {
	if numberOfMatches > 0 {
		return 1 + math.Log(float64(numberOfMatches+1))
	}
	return 0
}

// FinalScore is the product of the three factors rounded to five decimals.
func FinalScore(interaction, hashtag, keyword float64) float64 {
	return math.Round(interaction*hashtag*keyword*1e5) / 1e5
}

func (e *Engine) sameTagCount(subject, other []string) int {
	otherSet := make(map[string]struct{}, len(other))
	for _, t := range other {
		if _, pop := e.popular[t]; pop {
			continue
		}
		otherSet[t] = struct{}{}
	}
	seen := make(map[string]struct{}, len(subject))
	count := 0
	for _, t := range subject {
		if _, pop := e.popular[t]; pop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := otherSet[t]; ok {
			count++
		}
	}
	return count
}

func countMatches(keywords []*Keyword, q Query) int {
	matches := 0
	for _, kw := range keywords {
		if q.Phrase != "" && strings.Contains(kw.Content, q.Phrase) {
			matches++
		}
		if q.Hashtag != "" && containsFold(kw.Hashtags, q.Hashtag) {
			matches++
		}
	}
	return matches
}

func containsFold(tags []string, target string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, target) {
			return true
		}
	}
	return false
}
