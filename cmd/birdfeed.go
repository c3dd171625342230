package main

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/oklog/ulid"
	"github.com/rs/zerolog"
	"github.com/stevenroose/gonfig"
	"gopkg.in/go-playground/validator.v9"

	"github.com/jozuenoon/birdfeed/feed"
	"github.com/jozuenoon/birdfeed/metrics"
	"github.com/jozuenoon/birdfeed/ranking"
	"github.com/jozuenoon/birdfeed/repository/postgres"
	"github.com/jozuenoon/birdfeed/service"
	"github.com/jozuenoon/birdfeed/transport"
)

var config = struct {
	Feed      string `id:"feed" desc:"path to newline-delimited JSON feed" validate:"required"`
	ChunkSize int    `id:"chunk_size" desc:"records per ingestion batch"`

	Languages []string `id:"languages" desc:"allowed record language codes, empty disables the filter"`

	PopularHashtags []string `id:"popular_hashtags" desc:"hashtags excluded from overlap scoring"`
	QueryPhrase     string   `id:"query_phrase" desc:"ranking query phrase, runs ranking after ingestion"`
	QueryHashtag    string   `id:"query_hashtag" desc:"ranking query hashtag, runs ranking after ingestion"`

	MetricsAddr string `id:"metrics_addr" desc:"listen address for /metrics and /healthz, empty disables"`

	Debug bool `id:"debug"`

	Postgres *PostgresConfig `id:"postgres"`

	ConfigFile string `id:"config_file" desc:"provide a config file path"`
}{
	ChunkSize: service.DefaultChunkSize,
	Languages: []string{"ar", "en", "fr", "in", "pt", "es", "tr", "ja"},
}

//go:generate gomodifytags -file birdfeed.go -struct PostgresConfig -add-tags id -w
type PostgresConfig struct {
	Host          string `id:"host"`
	ShouldMigrate bool   `id:"should_migrate"`
	Debug         bool   `id:"debug"`
	Database      string `id:"database"`
	User          string `id:"user"`
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	_ = godotenv.Load()

	if err := gonfig.Load(&config, gonfig.Conf{
		ConfigFileVariable:  "config_file",
		FileDefaultFilename: "/config/config.yaml",
		FileDecoder:         gonfig.DecoderYAML,
	}); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	if err := validator.New().Struct(config); err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}

	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	t := time.Now()
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	runID := ulid.MustNew(ulid.Timestamp(t), entropy)
	log = log.With().Str("run", runID.String()).Logger()

	repo, err := postgres.New(&postgres.Config{
		Host:          config.Postgres.Host,
		ShouldMigrate: config.Postgres.ShouldMigrate,
		Debug:         config.Postgres.Debug,
		Database:      &config.Postgres.Database,
		User:          &config.Postgres.User,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up store")
	}

	records, err := feed.Load(config.Feed, &log)
	if err != nil {
		log.Fatal().Err(err).Str("feed", config.Feed).Msg("failed to read feed")
	}

	valid := feed.Filter(records)
	metrics.RecordsDropped.WithLabelValues("invalid").Add(float64(len(records) - len(valid)))

	unique := feed.Dedupe(valid)
	metrics.RecordsDropped.WithLabelValues("duplicate").Add(float64(len(valid) - len(unique)))

	kept := feed.Languages(unique, config.Languages)
	metrics.RecordsDropped.WithLabelValues("language").Add(float64(len(unique) - len(kept)))

	log.Info().
		Int("read", len(records)).
		Int("valid", len(valid)).
		Int("unique", len(unique)).
		Int("kept", len(kept)).
		Msg("feed loaded")

	transport.NewDebug(&log).Serve(config.MetricsAddr)

	ctx := context.Background()
	ing := service.NewIngestor(repo, &log, config.ChunkSize)

	results := ing.Run(ctx, kept)
	metrics.ObserveIngestDuration(t)

	var users, tweets, hashtags, contacts int64
	var failed []int
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res.Index)
			continue
		}
		users += res.Users
		tweets += res.Tweets
		hashtags += res.Hashtags
		contacts += res.Contacts
	}

	log.Info().
		Int("batches", len(results)).
		Ints("failed_batches", failed).
		Int64("users", users).
		Int64("tweets", tweets).
		Int64("hashtags", hashtags).
		Int64("contacts", contacts).
		Msg("ingestion complete")

	// Batch failures are reported above but never change the exit code.
	if config.QueryPhrase != "" || config.QueryHashtag != "" {
		rank(ctx, repo, &log)
	}
}

func rank(ctx context.Context, repo *postgres.ServiceImpl, log *zerolog.Logger) {
	interactions, err := repo.InteractionCounts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load interaction counts")
		return
	}
	hashtags, err := repo.HashtagsByUser(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load hashtags")
		return
	}
	keywords, err := repo.KeywordsByUser(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load keywords")
		return
	}

	engine := ranking.New(config.PopularHashtags)
	scores := engine.RecommendationScores(
		service.RankingInteractionsAdapter(interactions),
		hashtags,
		service.RankingKeywordsAdapter(keywords),
		ranking.Query{Phrase: config.QueryPhrase, Hashtag: config.QueryHashtag},
	)

	log.Info().Int("pairs", len(scores)).Msg("ranking complete")
	for _, s := range scores {
		log.Info().
			Int64("subject", s.SubjectID).
			Int64("other", s.OtherID).
			Float64("score", s.FinalScore).
			Msg("recommendation")
	}
}
