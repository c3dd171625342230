package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jozuenoon/birdfeed/metrics"
	"github.com/jozuenoon/birdfeed/model"
	"github.com/jozuenoon/birdfeed/repository"
)

const DefaultChunkSize = 1000

func NewIngestor(repo repository.Service, log *zerolog.Logger, chunkSize int) *Ingestor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Ingestor{
		repo:      repo,
		log:       log,
		chunkSize: chunkSize,
	}
}

type Ingestor struct {
	repo      repository.Service
	log       *zerolog.Logger
	chunkSize int
}

// BatchResult is the outcome of one chunk: affected row counts on success,
// Err set on failure.
type BatchResult struct {
	Index    int
	Users    int64
	Tweets   int64
	Hashtags int64
	Contacts int64
	Err      error
}

// Run splits records into contiguous chunks and processes every chunk in
// its own goroutine. Results come back in dispatch order regardless of
// completion order. A failed chunk is logged with its index, siblings are
// unaffected and the run completes.
func (ing *Ingestor) Run(ctx context.Context, records []*model.Record) []*BatchResult {
	if len(records) == 0 {
		return nil
	}

	n := (len(records) + ing.chunkSize - 1) / ing.chunkSize
	results := make([]*BatchResult, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		lo := i * ing.chunkSize
		hi := lo + ing.chunkSize
		if hi > len(records) {
			hi = len(records)
		}
		wg.Add(1)
		go func(idx int, chunk []*model.Record) {
			defer wg.Done()
			results[idx] = ing.processChunk(ctx, idx, chunk)
		}(i, records[lo:hi])
	}
	wg.Wait()

	for _, res := range results {
		if res.Err != nil {
			metrics.BatchFailures.Inc()
			ing.log.Error().Int("batch", res.Index).Err(res.Err).Msg("batch failed")
			continue
		}
		ing.log.Debug().
			Int("batch", res.Index).
			Int64("users", res.Users).
			Int64("tweets", res.Tweets).
			Int64("hashtags", res.Hashtags).
			Int64("contacts", res.Contacts).
			Msg("batch done")
	}
	return results
}

// processChunk extracts and writes one chunk. Users go in before tweets so
// the author row always exists for its tweets. The first write failure
// aborts the chunk's remaining writes.
func (ing *Ingestor) processChunk(ctx context.Context, idx int, chunk []*model.Record) (res *BatchResult) {
	res = &BatchResult{Index: idx}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("batch %d panicked: %v", idx, r)
		}
	}()

	ents := Collect(chunk)

	var err error
	if res.Users, err = ing.repo.UpsertUsers(ctx, ents.Users); err != nil {
		res.Err = fmt.Errorf("upsert users: %w", err)
		return res
	}
	if res.Tweets, err = ing.repo.UpsertTweets(ctx, ents.Tweets); err != nil {
		res.Err = fmt.Errorf("upsert tweets: %w", err)
		return res
	}
	if res.Hashtags, err = ing.repo.InsertHashtags(ctx, ents.Hashtags); err != nil {
		res.Err = fmt.Errorf("insert hashtags: %w", err)
		return res
	}
	if res.Contacts, err = ing.repo.UpsertContacts(ctx, ents.Contacts); err != nil {
		res.Err = fmt.Errorf("upsert contacts: %w", err)
		return res
	}

	metrics.RowsAffected.WithLabelValues("users").Add(float64(res.Users))
	metrics.RowsAffected.WithLabelValues("tweets").Add(float64(res.Tweets))
	metrics.RowsAffected.WithLabelValues("hashtags").Add(float64(res.Hashtags))
	metrics.RowsAffected.WithLabelValues("contacts").Add(float64(res.Contacts))
	return res
}
