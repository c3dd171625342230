package service

import (
	"time"

	"github.com/araddon/dateparse"

	"github.com/jozuenoon/birdfeed/model"
	"github.com/jozuenoon/birdfeed/repository"
)

// Extraction is the set of normalized entities derived from one record.
type Extraction struct {
	// Author with the record's own timestamp.
	Author *repository.User
	// Full user records observed through the record, currently the
	// retweeted author carrying the retweeted status timestamp.
	Referenced []*repository.User
	// Reply targets known only by id. Empty name/screen name/description,
	// timestamp of the triggering record.
	Placeholders []*repository.User
	Hashtags     []*repository.Hashtag
	Contacts     []*repository.Contact
}

// Extract derives the author, referenced users, hashtag pairs and contact
// edges from a validated record.
func Extract(r *model.Record) *Extraction {
	tweetID := r.Identity()
	authorID := r.User.Identity()
	createdAt := parseTime(r.CreatedAt)

	ex := &Extraction{
		Author: transformUser(r.User, createdAt),
	}

	if r.Entities != nil {
		for _, h := range r.Entities.Hashtags {
			ex.Hashtags = append(ex.Hashtags, &repository.Hashtag{
				TweetID: tweetID,
				Tag:     h.Text,
			})
		}
	}

	if r.InReplyToUserID != 0 {
		ex.Placeholders = append(ex.Placeholders, &repository.User{
			UserID:    r.InReplyToUserID,
			CreatedAt: createdAt,
		})
		ex.Contacts = append(ex.Contacts, &repository.Contact{
			UserID:         r.InReplyToUserID,
			ContactTweetID: tweetID,
			ContactedUser:  authorID,
			Interaction:    repository.InteractionReply,
		})
	}

	if rt := r.RetweetedStatus; rt != nil && rt.User != nil {
		rtAuthorID := rt.User.Identity()
		// The retweeted author is observed with the retweeted status
		// timestamp, not the retweeting record's.
		ex.Referenced = append(ex.Referenced, transformUser(rt.User, parseTime(rt.CreatedAt)))
		if rtAuthorID != authorID {
			ex.Contacts = append(ex.Contacts, &repository.Contact{
				UserID:         rtAuthorID,
				ContactTweetID: tweetID,
				ContactedUser:  authorID,
				Interaction:    repository.InteractionRetweet,
			})
		}
	}

	return ex
}

// ChunkEntities aggregates extractions over one batch, users merged by id.
type ChunkEntities struct {
	Users    []*repository.User
	Tweets   []*repository.Tweet
	Hashtags []*repository.Hashtag
	Contacts []*repository.Contact
}

// Collect extracts every record of a chunk and merges the observed users:
// the newest observation per user id wins, placeholders never displace an
// existing entry.
func Collect(records []*model.Record) *ChunkEntities {
	users := &userSet{byID: make(map[int64]*repository.User)}
	ents := &ChunkEntities{}
	for _, r := range records {
		if r.User == nil {
			continue
		}
		ex := Extract(r)
		users.Observe(ex.Author)
		for _, u := range ex.Referenced {
			users.Observe(u)
		}
		for _, u := range ex.Placeholders {
			users.Reserve(u)
		}
		ents.Tweets = append(ents.Tweets, transformTweet(r))
		ents.Hashtags = append(ents.Hashtags, ex.Hashtags...)
		ents.Contacts = append(ents.Contacts, ex.Contacts...)
	}
	ents.Users = users.All()
	return ents
}

func transformUser(u *model.User, observedAt time.Time) *repository.User {
	return &repository.User{
		UserID:          u.Identity(),
		Name:            u.Name,
		ScreenName:      u.ScreenName,
		Location:        u.Location,
		Description:     u.Description,
		FollowersCount:  u.FollowersCount,
		FriendsCount:    u.FriendsCount,
		StatusesCount:   u.StatusesCount,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       observedAt,
	}
}

func transformTweet(r *model.Record) *repository.Tweet {
	return &repository.Tweet{
		TweetID:           r.Identity(),
		CreatedAt:         parseTime(r.CreatedAt),
		Text:              r.Text,
		Source:            r.Source,
		UserID:            r.User.Identity(),
		RetweetCount:      r.RetweetCount,
		FavoriteCount:     r.FavoriteCount,
		Lang:              r.Lang,
		PossiblySensitive: r.PossiblySensitive,
	}
}

// parseTime is tolerant of the feed's mixed timestamp formats. An
// unparseable timestamp yields the zero time, which always loses the
// last-write-wins comparison.
func parseTime(s string) time.Time {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// userSet merges user observations by id, preserving first-seen order.
type userSet struct {
	byID  map[int64]*repository.User
	order []int64
}

// Observe records a full user observation, newest timestamp wins.
func (s *userSet) Observe(u *repository.User) {
	cur, ok := s.byID[u.UserID]
	if !ok {
		s.byID[u.UserID] = u
		s.order = append(s.order, u.UserID)
		return
	}
	if cur.CreatedAt.Before(u.CreatedAt) {
		s.byID[u.UserID] = u
	}
}

// Reserve records a placeholder, only if the id was not seen yet.
func (s *userSet) Reserve(u *repository.User) {
	if _, ok := s.byID[u.UserID]; ok {
		return
	}
	s.byID[u.UserID] = u
	s.order = append(s.order, u.UserID)
}

func (s *userSet) All() []*repository.User {
	out := make([]*repository.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
