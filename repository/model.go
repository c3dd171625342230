package repository

import (
	"time"
)

// User is the normalized author entity. Identity is immutable, all other
// columns follow last-write-wins by CreatedAt, which carries the timestamp
// of the originating feed record rather than arrival order.
type User struct {
	UserID          int64 `gorm:"column:user_id;primary_key"`
	Name            string
	ScreenName      string
	Location        string
	Description     string
	FollowersCount  int
	FriendsCount    int
	StatusesCount   int
	ProfileImageURL string `gorm:"column:profile_image_url"`
	CreatedAt       time.Time
}

func (User) TableName() string { return "users" }

type Tweet struct {
	TweetID           int64 `gorm:"column:tweet_id;primary_key"`
	CreatedAt         time.Time
	Text              string
	Source            string
	UserID            int64 `gorm:"column:user_id"`
	RetweetCount      int
	FavoriteCount     int
	Lang              string
	PossiblySensitive bool
}

func (Tweet) TableName() string { return "tweets" }

// Hashtag is an append-only (tweet, tag) pair. The same pair may repeat if
// the tag appears multiple times in the source record.
type Hashtag struct {
	HashtagID int64  `gorm:"column:hashtag_id;primary_key;auto_increment"`
	TweetID   int64  `gorm:"column:tweet_id"`
	Tag       string `gorm:"column:hashtag"`
}

func (Hashtag) TableName() string { return "hashtags" }

// Interaction kinds stored on a contact edge.
const (
	InteractionReply   = "reply"
	InteractionRetweet = "retweet"
)

// Contact records that ContactedUser interacted with UserID via the tweet
// ContactTweetID. Keyed by (user_id, contact_tweet_id), the remaining
// columns are overwritten on conflict.
type Contact struct {
	UserID         int64 `gorm:"column:user_id;primary_key"`
	ContactTweetID int64 `gorm:"column:contact_tweet_id;primary_key"`
	ContactedUser  int64 `gorm:"column:contacted_user"`
	Interaction    string
}

func (Contact) TableName() string { return "contacts" }

// InteractionCount aggregates stored contact edges per user pair.
type InteractionCount struct {
	UserID        int64
	ContactedUser int64
	ReplyCount    int
	RetweetCount  int
}

// Keyword is one stored keyword entry of a user: the text of one of their
// tweets plus the hashtags attached to it.
type Keyword struct {
	Content  string
	Hashtags []string
}
