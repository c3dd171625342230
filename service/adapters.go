package service

import (
	"github.com/jozuenoon/birdfeed/ranking"
	"github.com/jozuenoon/birdfeed/repository"
)

func RankingInteractionsAdapter(in []*repository.InteractionCount) []*ranking.Interaction {
	var out []*ranking.Interaction
	for _, ic := range in {
		out = append(out, &ranking.Interaction{
			SubjectID:    ic.UserID,
			OtherID:      ic.ContactedUser,
			ReplyCount:   ic.ReplyCount,
			RetweetCount: ic.RetweetCount,
		})
	}
	return out
}

func RankingKeywordsAdapter(in map[int64][]*repository.Keyword) map[int64][]*ranking.Keyword {
	out := make(map[int64][]*ranking.Keyword, len(in))
	for id, kws := range in {
		for _, kw := range kws {
			out[id] = append(out[id], &ranking.Keyword{
				Content:  kw.Content,
				Hashtags: kw.Hashtags,
			})
		}
	}
	return out
}
