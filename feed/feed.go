package feed

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jozuenoon/birdfeed/metrics"
	"github.com/jozuenoon/birdfeed/model"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineBuffer     = 4 * 1024 * 1024
)

// Load reads a newline-delimited JSON feed from path. A file that can't be
// opened is fatal to the run, a line that can't be parsed is not.
func Load(path string, log *zerolog.Logger) ([]*model.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f, log)
}

// Read parses one record per line, skipping malformed lines with a warning.
func Read(r io.Reader, log *zerolog.Logger) ([]*model.Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineBuffer)

	var records []*model.Record
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		metrics.FeedLines.Inc()
		rec := &model.Record{}
		if err := json.Unmarshal(raw, rec); err != nil {
			metrics.ParseErrors.Inc()
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed feed line")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Valid reports whether a record is complete enough to ingest. All of the
// following must hold: a post id, an author with an id, a non-empty creation
// timestamp, non-empty text after trimming, and at least one hashtag entry.
func Valid(r *model.Record) bool {
	if r == nil || r.Identity() == 0 {
		return false
	}
	if r.User == nil || r.User.Identity() == 0 {
		return false
	}
	if r.CreatedAt == "" {
		return false
	}
	if strings.TrimSpace(r.Text) == "" {
		return false
	}
	if r.Entities == nil || len(r.Entities.Hashtags) == 0 {
		return false
	}
	return true
}

// Filter drops records that fail Valid. Rejections are silent, they are
// expected in raw feeds and are not errors.
func Filter(records []*model.Record) []*model.Record {
	var out []*model.Record
	for _, r := range records {
		if Valid(r) {
			out = append(out, r)
		}
	}
	return out
}

// Dedupe keeps the first occurrence of every post id and discards the rest,
// regardless of content differences between duplicates.
func Dedupe(records []*model.Record) []*model.Record {
	seen := make(map[int64]struct{}, len(records))
	var out []*model.Record
	for _, r := range records {
		id := r.Identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Languages keeps records whose lang code is in the allow-list. An empty
// list disables the filter.
func Languages(records []*model.Record, langs []string) []*model.Record {
	if len(langs) == 0 {
		return records
	}
	allowed := make(map[string]struct{}, len(langs))
	for _, l := range langs {
		allowed[l] = struct{}{}
	}
	var out []*model.Record
	for _, r := range records {
		if _, ok := allowed[r.Lang]; ok {
			out = append(out, r)
		}
	}
	return out
}
