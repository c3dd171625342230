package ranking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInteractionScore(t *testing.T) {
	assert.Equal(t, 0.0, InteractionScore(0, 0))
	assert.InDelta(t, math.Log(11), InteractionScore(5, 0), 1e-12)
	assert.InDelta(t, math.Log(2), InteractionScore(0, 1), 1e-12)
}

func TestHashtagScore(t *testing.T) {
	assert.Equal(t, 1.0, HashtagScore(0))
	assert.Equal(t, 1.0, HashtagScore(10))
	assert.InDelta(t, 1+math.Log(2), HashtagScore(11), 1e-12)
}

func TestKeywordScore(t *testing.T) {
	assert.Equal(t, 0.0, KeywordScore(0))
	assert.InDelta(t, 1+math.Log(2), KeywordScore(1), 1e-12)
}

func TestFinalScoreRounding(t *testing.T) {
	assert.Equal(t, 2.0, FinalScore(2.0, 1.0, 1.0))
	assert.Equal(t, 0.33333, FinalScore(1.0/3.0, 1.0, 1.0))
}

func TestKeywordGating(t *testing.T) {
	interactions := []*Interaction{
		{SubjectID: 1, OtherID: 2, ReplyCount: 9, RetweetCount: 9},
	}
	hashtags := map[int64][]string{
		1: {"a", "b", "c"},
		2: {"a", "b", "c"},
	}
	// No keyword entries at all: keyword score is zero and gates the pair out.
	got := New(nil).RecommendationScores(interactions, hashtags, nil, Query{Phrase: "go"})
	assert.Empty(t, got)
}

func TestMissingSignalDataIsEmptyNotError(t *testing.T) {
	interactions := []*Interaction{
		{SubjectID: 1, OtherID: 2, ReplyCount: 1},
	}
	keywords := map[int64][]*Keyword{
		1: {{Content: "all about gophers"}},
	}
	// No hashtag data for either user: flat baseline of 1, no panic.
	got := New(nil).RecommendationScores(interactions, nil, keywords, Query{Phrase: "gopher"})
	assert.Len(t, got, 1)
	assert.InDelta(t, FinalScore(math.Log(3), 1, 1+math.Log(2)), got[0].FinalScore, 1e-9)
}

func TestQueryHashtagMatchIsCaseFolded(t *testing.T) {
	keywords := []*Keyword{
		{Content: "nothing relevant", Hashtags: []string{"GoLang"}},
	}
	assert.Equal(t, 1, countMatches(keywords, Query{Hashtag: "golang"}))
	// Phrase matching stays case-sensitive as supplied.
	assert.Equal(t, 0, countMatches(keywords, Query{Phrase: "NOTHING"}))
}

func TestRecommendationScoresEndToEnd(t *testing.T) {
	// 3 replies and 1 retweet, 12 shared tags of which one is popular,
	// query phrase matching 2 of the subject's keyword entries.
	shared := []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10", "t11", "breaking"}

	interactions := []*Interaction{
		{SubjectID: 1, OtherID: 2, ReplyCount: 3, RetweetCount: 1},
		{SubjectID: 3, OtherID: 4, ReplyCount: 1, RetweetCount: 0},
	}
	hashtags := map[int64][]string{
		1: append([]string{"only-mine"}, shared...),
		2: shared,
		3: {"x"},
		4: {"y"},
	}
	keywords := map[int64][]*Keyword{
		1: {
			{Content: "gophers at work"},
			{Content: "more gophers"},
			{Content: "unrelated"},
		},
		3: {{Content: "one gophers entry"}},
	}

	engine := New([]string{"breaking"})
	got := engine.RecommendationScores(interactions, hashtags, keywords, Query{Phrase: "gophers"})

	assert.Len(t, got, 2)
	// interaction = ln(8), hashtag = 1+ln(2), keyword = 1+ln(3)
	assert.Equal(t, int64(1), got[0].SubjectID)
	assert.Equal(t, int64(2), got[0].OtherID)
	assert.InDelta(t, 7.3888, got[0].FinalScore, 1e-9)
	assert.InDelta(t, FinalScore(math.Log(8), 1+math.Log(2), 1+math.Log(3)), got[0].FinalScore, 1e-9)
	// weaker pair sorts after
	assert.Equal(t, int64(3), got[1].SubjectID)
}

func TestRecommendationScoresStableTies(t *testing.T) {
	interactions := []*Interaction{
		{SubjectID: 1, OtherID: 2, ReplyCount: 1},
		{SubjectID: 3, OtherID: 4, ReplyCount: 1},
		{SubjectID: 5, OtherID: 6, ReplyCount: 1},
	}
	keywords := map[int64][]*Keyword{
		1: {{Content: "go go go"}},
		3: {{Content: "go go go"}},
		5: {{Content: "go go go"}},
	}
	got := New(nil).RecommendationScores(interactions, nil, keywords, Query{Phrase: "go"})
	assert.Len(t, got, 3)
	assert.Equal(t, int64(1), got[0].SubjectID)
	assert.Equal(t, int64(3), got[1].SubjectID)
	assert.Equal(t, int64(5), got[2].SubjectID)
}

func TestSameTagCountIsSetIntersection(t *testing.T) {
	e := New([]string{"pop"})
	// duplicates and popular tags don't inflate the count
	subject := []string{"a", "a", "b", "pop", "c"}
	other := []string{"a", "b", "pop", "d"}
	assert.Equal(t, 2, e.sameTagCount(subject, other))
}
