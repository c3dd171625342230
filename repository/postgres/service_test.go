// +build integration

package postgres

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jozuenoon/birdfeed/repository"
)

func createDb(host, database string) error {
	return executeDb("createdb", host, database)
}

func getDBHost(host string) string {
	if envHost, ok := os.LookupEnv("POSTGRES_HOST"); ok {
		host = envHost
	}
	if host == "" {
		host = "localhost"
	}
	return host
}

func executeDb(command, host, database string) error {
	host = getDBHost(host)
	cmd := exec.Command(command, "-p", "5432", "-h", host, "-U", "postgres", database)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return err
	}
	return nil
}

func dropDb(t *testing.T, host, database string) {
	t.Helper()
	if err := executeDb("dropdb", host, database); err != nil {
		t.Fatalf("failed to drop database: %s", err)
	}
}

func newTestService(t *testing.T) (*ServiceImpl, func()) {
	t.Helper()
	database := fmt.Sprintf("test_%d", rand.Intn(1000))
	t.Log("using database: ", database)
	if err := createDb("", database); err != nil {
		t.Fatalf("failed to create database: %s", err)
	}
	user := "postgres"
	svc, err := New(&Config{
		Host:          getDBHost(""),
		ShouldMigrate: true,
		Database:      &database,
		User:          &user,
	})
	if err != nil {
		dropDb(t, "", database)
		t.Fatal("failed to create service")
	}
	return svc, func() {
		svc.DB.Close()
		dropDb(t, "", database)
	}
}

func TestUpsertUsersLastWriteWins(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	t2 := time.Date(2020, 6, 2, 0, 0, 0, 0, time.UTC)
	n, err := svc.UpsertUsers(ctx, []*repository.User{
		{UserID: 1, Name: "current", CreatedAt: t2},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	t.Run("older observation does not overwrite", func(t *testing.T) {
		t1 := t2.Add(-24 * time.Hour)
		_, err := svc.UpsertUsers(ctx, []*repository.User{
			{UserID: 1, Name: "stale", CreatedAt: t1},
		})
		assert.NoError(t, err)

		var u repository.User
		assert.NoError(t, svc.DB.Where("user_id = ?", 1).First(&u).Error)
		assert.Equal(t, "current", u.Name)
	})

	t.Run("newer observation overwrites", func(t *testing.T) {
		t3 := t2.Add(24 * time.Hour)
		_, err := svc.UpsertUsers(ctx, []*repository.User{
			{UserID: 1, Name: "renamed", CreatedAt: t3},
		})
		assert.NoError(t, err)

		var u repository.User
		assert.NoError(t, svc.DB.Where("user_id = ?", 1).First(&u).Error)
		assert.Equal(t, "renamed", u.Name)
	})
}

func TestUpsertTweetsOverwritesOnReingestion(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	ts := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.UpsertTweets(ctx, []*repository.Tweet{
		{TweetID: 10, UserID: 1, Text: "first", CreatedAt: ts, RetweetCount: 1},
	})
	assert.NoError(t, err)

	_, err = svc.UpsertTweets(ctx, []*repository.Tweet{
		{TweetID: 10, UserID: 1, Text: "second", CreatedAt: ts, RetweetCount: 5},
	})
	assert.NoError(t, err)

	var tw repository.Tweet
	assert.NoError(t, svc.DB.Where("tweet_id = ?", 10).First(&tw).Error)
	assert.Equal(t, "second", tw.Text)
	assert.Equal(t, 5, tw.RetweetCount)
}

func TestInsertHashtagsKeepsDuplicatePairs(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	n, err := svc.InsertHashtags(ctx, []*repository.Hashtag{
		{TweetID: 10, Tag: "go"},
		{TweetID: 10, Tag: "go"},
		{TweetID: 10, Tag: "news"},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)

	var count int
	assert.NoError(t, svc.DB.Model(&repository.Hashtag{}).Where("tweet_id = ?", 10).Count(&count).Error)
	assert.Equal(t, 3, count)
}

func TestUpsertContactsOverwritesByKey(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.UpsertContacts(ctx, []*repository.Contact{
		{UserID: 1, ContactTweetID: 10, ContactedUser: 2, Interaction: repository.InteractionReply},
	})
	assert.NoError(t, err)

	_, err = svc.UpsertContacts(ctx, []*repository.Contact{
		{UserID: 1, ContactTweetID: 10, ContactedUser: 3, Interaction: repository.InteractionRetweet},
	})
	assert.NoError(t, err)

	var contacts []*repository.Contact
	assert.NoError(t, svc.DB.Find(&contacts).Error)
	assert.Len(t, contacts, 1)
	assert.Equal(t, int64(3), contacts[0].ContactedUser)
	assert.Equal(t, repository.InteractionRetweet, contacts[0].Interaction)
}

func TestInteractionCounts(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.UpsertContacts(ctx, []*repository.Contact{
		{UserID: 1, ContactTweetID: 10, ContactedUser: 2, Interaction: repository.InteractionReply},
		{UserID: 1, ContactTweetID: 11, ContactedUser: 2, Interaction: repository.InteractionReply},
		{UserID: 1, ContactTweetID: 12, ContactedUser: 2, Interaction: repository.InteractionRetweet},
		{UserID: 3, ContactTweetID: 13, ContactedUser: 4, Interaction: repository.InteractionReply},
	})
	assert.NoError(t, err)

	counts, err := svc.InteractionCounts(ctx)
	assert.NoError(t, err)
	assert.Len(t, counts, 2)
	for _, c := range counts {
		if c.UserID == 1 {
			assert.Equal(t, int64(2), c.ContactedUser)
			assert.Equal(t, 2, c.ReplyCount)
			assert.Equal(t, 1, c.RetweetCount)
		}
	}
}

func TestKeywordsByUser(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	ts := time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.UpsertTweets(ctx, []*repository.Tweet{
		{TweetID: 10, UserID: 1, Text: "gophers everywhere", CreatedAt: ts},
		{TweetID: 11, UserID: 1, Text: "more gophers", CreatedAt: ts},
	})
	assert.NoError(t, err)
	_, err = svc.InsertHashtags(ctx, []*repository.Hashtag{
		{TweetID: 10, Tag: "go"},
		{TweetID: 10, Tag: "news"},
	})
	assert.NoError(t, err)

	keywords, err := svc.KeywordsByUser(ctx)
	assert.NoError(t, err)
	assert.Len(t, keywords[1], 2)
	assert.Equal(t, "gophers everywhere", keywords[1][0].Content)
	assert.Equal(t, []string{"go", "news"}, keywords[1][0].Hashtags)
	assert.Empty(t, keywords[1][1].Hashtags)
}
