package model

import (
	"strconv"
)

// Record is a single raw feed entry, one JSON object per feed line.
// Field names follow the source feed format; unknown fields are ignored.
type Record struct {
	ID                int64     `json:"id,omitempty"`
	IDStr             string    `json:"id_str,omitempty"`
	CreatedAt         string    `json:"created_at,omitempty"`
	Text              string    `json:"text,omitempty"`
	Source            string    `json:"source,omitempty"`
	User              *User     `json:"user,omitempty"`
	Entities          *Entities `json:"entities,omitempty"`
	InReplyToUserID   int64     `json:"in_reply_to_user_id,omitempty"`
	RetweetedStatus   *Record   `json:"retweeted_status,omitempty"`
	RetweetCount      int       `json:"retweet_count,omitempty"`
	FavoriteCount     int       `json:"favorite_count,omitempty"`
	Lang              string    `json:"lang,omitempty"`
	PossiblySensitive bool      `json:"possibly_sensitive,omitempty"`
}

// User is the author object embedded in a record.
type User struct {
	ID              int64  `json:"id,omitempty"`
	IDStr           string `json:"id_str,omitempty"`
	Name            string `json:"name,omitempty"`
	ScreenName      string `json:"screen_name,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
	FollowersCount  int    `json:"followers_count,omitempty"`
	FriendsCount    int    `json:"friends_count,omitempty"`
	StatusesCount   int    `json:"statuses_count,omitempty"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

type Entities struct {
	Hashtags []Hashtag `json:"hashtags,omitempty"`
}

type Hashtag struct {
	Text string `json:"text,omitempty"`
}

// Identity returns the record's numeric identifier. The feed carries both
// `id` and `id_str`, some producers only fill one of them.
func (r *Record) Identity() int64 {
	if r.ID != 0 {
		return r.ID
	}
	id, _ := strconv.ParseInt(r.IDStr, 10, 64)
	return id
}

// Identity returns the author's numeric identifier, see Record.Identity.
func (u *User) Identity() int64 {
	if u.ID != 0 {
		return u.ID
	}
	id, _ := strconv.ParseInt(u.IDStr, 10, 64)
	return id
}
