package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"

	"github.com/jozuenoon/birdfeed/repository"
)

const (
	defaultDatabase = "birdfeed"
	defaultUser     = "ingest_service"
)

type Config struct {
	Host          string
	ShouldMigrate bool
	Debug         bool
	Database      *string
	User          *string
}

func New(cfg *Config) (*ServiceImpl, error) {
	db, err := newDatabase(cfg.Host, cfg.ShouldMigrate, cfg.Debug, cfg.Database, cfg.User)
	if err != nil {
		return nil, err
	}
	return &ServiceImpl{DB: db}, nil
}

func newDatabase(host string, shouldMigrate, debug bool, database, user *string) (*gorm.DB, error) {
	dbName := defaultDatabase
	if database != nil {
		dbName = *database
	}
	dbUser := defaultUser
	if user != nil {
		dbUser = *user
	}

	addr := fmt.Sprintf("postgresql://%s@%s:5432/%s?sslmode=disable", dbUser, host, dbName)
	db, err := gorm.Open("postgres", addr)
	if err != nil {
		return nil, err
	}

	db.LogMode(debug)

	if shouldMigrate {
		if err := db.AutoMigrate(
			&repository.User{},
			&repository.Tweet{},
			&repository.Hashtag{},
			&repository.Contact{},
		).Error; err != nil {
			return nil, err
		}
	}

	return db, nil
}

var _ repository.Service = (*ServiceImpl)(nil)

type ServiceImpl struct {
	DB *gorm.DB
}

const userUpsert = `INSERT INTO users
(user_id, name, screen_name, location, description, followers_count, friends_count, statuses_count, profile_image_url, created_at)
VALUES %s
ON CONFLICT (user_id) DO UPDATE SET
name = excluded.name,
screen_name = excluded.screen_name,
location = excluded.location,
description = excluded.description,
followers_count = excluded.followers_count,
friends_count = excluded.friends_count,
statuses_count = excluded.statuses_count,
profile_image_url = excluded.profile_image_url,
created_at = excluded.created_at
WHERE users.created_at < excluded.created_at`

func (s *ServiceImpl) UpsertUsers(ctx context.Context, users []*repository.User) (int64, error) {
	if len(users) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(users)*10)
	for _, u := range users {
		args = append(args, u.UserID, u.Name, u.ScreenName, u.Location, u.Description,
			u.FollowersCount, u.FriendsCount, u.StatusesCount, u.ProfileImageURL, u.CreatedAt)
	}
	return s.exec(fmt.Sprintf(userUpsert, valuesPlaceholders(len(users), 10)), args)
}

const tweetUpsert = `INSERT INTO tweets
(tweet_id, created_at, text, source, user_id, retweet_count, favorite_count, lang, possibly_sensitive)
VALUES %s
ON CONFLICT (tweet_id) DO UPDATE SET
created_at = excluded.created_at,
text = excluded.text,
source = excluded.source,
user_id = excluded.user_id,
retweet_count = excluded.retweet_count,
favorite_count = excluded.favorite_count,
lang = excluded.lang,
possibly_sensitive = excluded.possibly_sensitive`

func (s *ServiceImpl) UpsertTweets(ctx context.Context, tweets []*repository.Tweet) (int64, error) {
	if len(tweets) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(tweets)*9)
	for _, t := range tweets {
		args = append(args, t.TweetID, t.CreatedAt, t.Text, t.Source, t.UserID,
			t.RetweetCount, t.FavoriteCount, t.Lang, t.PossiblySensitive)
	}
	return s.exec(fmt.Sprintf(tweetUpsert, valuesPlaceholders(len(tweets), 9)), args)
}

const hashtagInsert = `INSERT INTO hashtags (tweet_id, hashtag) VALUES %s`

func (s *ServiceImpl) InsertHashtags(ctx context.Context, tags []*repository.Hashtag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(tags)*2)
	for _, h := range tags {
		args = append(args, h.TweetID, h.Tag)
	}
	return s.exec(fmt.Sprintf(hashtagInsert, valuesPlaceholders(len(tags), 2)), args)
}

const contactUpsert = `INSERT INTO contacts
(user_id, contact_tweet_id, contacted_user, interaction)
VALUES %s
ON CONFLICT (user_id, contact_tweet_id) DO UPDATE SET
contacted_user = excluded.contacted_user,
interaction = excluded.interaction`

func (s *ServiceImpl) UpsertContacts(ctx context.Context, contacts []*repository.Contact) (int64, error) {
	contacts = lastPerKey(contacts)
	if len(contacts) == 0 {
		return 0, nil
	}
	args := make([]interface{}, 0, len(contacts)*4)
	for _, c := range contacts {
		args = append(args, c.UserID, c.ContactTweetID, c.ContactedUser, c.Interaction)
	}
	return s.exec(fmt.Sprintf(contactUpsert, valuesPlaceholders(len(contacts), 4)), args)
}

func (s *ServiceImpl) InteractionCounts(ctx context.Context) ([]*repository.InteractionCount, error) {
	rows, err := s.DB.Raw(`SELECT user_id, contacted_user,
COUNT(*) FILTER (WHERE interaction = 'reply'),
COUNT(*) FILTER (WHERE interaction = 'retweet')
FROM contacts GROUP BY user_id, contacted_user`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*repository.InteractionCount
	for rows.Next() {
		ic := &repository.InteractionCount{}
		if err := rows.Scan(&ic.UserID, &ic.ContactedUser, &ic.ReplyCount, &ic.RetweetCount); err != nil {
			return nil, err
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

func (s *ServiceImpl) HashtagsByUser(ctx context.Context) (map[int64][]string, error) {
	rows, err := s.DB.Raw(`SELECT t.user_id, h.hashtag
FROM hashtags h JOIN tweets t ON t.tweet_id = h.tweet_id
ORDER BY h.hashtag_id`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[int64][]string)
	for rows.Next() {
		var userID int64
		var tag string
		if err := rows.Scan(&userID, &tag); err != nil {
			return nil, err
		}
		out[userID] = append(out[userID], tag)
	}
	return out, rows.Err()
}

func (s *ServiceImpl) KeywordsByUser(ctx context.Context) (map[int64][]*repository.Keyword, error) {
	rows, err := s.DB.Raw(`SELECT tweet_id, user_id, text FROM tweets ORDER BY tweet_id`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byTweet := make(map[int64]*repository.Keyword)
	out := make(map[int64][]*repository.Keyword)
	for rows.Next() {
		var tweetID, userID int64
		var text string
		if err := rows.Scan(&tweetID, &userID, &text); err != nil {
			return nil, err
		}
		kw := &repository.Keyword{Content: text}
		byTweet[tweetID] = kw
		out[userID] = append(out[userID], kw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trows, err := s.DB.Raw(`SELECT tweet_id, hashtag FROM hashtags ORDER BY hashtag_id`).Rows()
	if err != nil {
		return nil, err
	}
	defer trows.Close()
	for trows.Next() {
		var tweetID int64
		var tag string
		if err := trows.Scan(&tweetID, &tag); err != nil {
			return nil, err
		}
		if kw, ok := byTweet[tweetID]; ok {
			kw.Hashtags = append(kw.Hashtags, tag)
		}
	}
	return out, trows.Err()
}

func (s *ServiceImpl) exec(query string, args []interface{}) (int64, error) {
	res := s.DB.Exec(query, args...)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// valuesPlaceholders builds the VALUES groups for a multi-row statement.
// Plain `?` markers, gorm rewrites them into dialect bind vars on Exec.
func valuesPlaceholders(rows, cols int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", cols), ",") + ")"
	groups := make([]string, rows)
	for i := range groups {
		groups[i] = row
	}
	return strings.Join(groups, ",")
}

// lastPerKey collapses contacts sharing (user, tweet) to the last one.
// Postgres rejects a multi-row ON CONFLICT statement that touches the same
// key twice, and the upsert contract is overwrite anyway.
func lastPerKey(contacts []*repository.Contact) []*repository.Contact {
	type key struct {
		user  int64
		tweet int64
	}
	idx := make(map[key]int, len(contacts))
	var out []*repository.Contact
	for _, c := range contacts {
		k := key{c.UserID, c.ContactTweetID}
		if i, ok := idx[k]; ok {
			out[i] = c
			continue
		}
		idx[k] = len(out)
		out = append(out, c)
	}
	return out
}
