package repository

import (
	"context"
)

// Service is the durable store behind the ingestion pipeline. All writes
// are batched: one multi-row statement per call. Every method is safe for
// use from concurrently executing batches.
type Service interface {
	// UpsertUsers overwrites mutable user columns only when the incoming
	// record timestamp is newer than the stored one.
	UpsertUsers(ctx context.Context, users []*User) (int64, error)

	// UpsertTweets overwrites mutable tweet columns on re-ingestion of the
	// same id.
	UpsertTweets(ctx context.Context, tweets []*Tweet) (int64, error)

	// InsertHashtags appends (tweet, tag) pairs, duplicates included.
	InsertHashtags(ctx context.Context, tags []*Hashtag) (int64, error)

	// UpsertContacts is keyed by (user, tweet), contacted user and
	// interaction kind are overwritten on conflict.
	UpsertContacts(ctx context.Context, contacts []*Contact) (int64, error)

	// Ranking signal aggregation.
	InteractionCounts(ctx context.Context) ([]*InteractionCount, error)
	HashtagsByUser(ctx context.Context) (map[int64][]string, error)
	KeywordsByUser(ctx context.Context) (map[int64][]*Keyword, error)
}
