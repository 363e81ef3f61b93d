package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// OddsArchiveStore is the narrow slice of the odds store the archiver needs:
// time-ranged reads plus the matching delete for post-archive trimming.
type OddsArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.OddsQuote, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// Archiver moves aged odds history out of PostgreSQL into object storage as
// JSONL, and stores raw provider payload snapshots for replay.
//
// ArchiveOdds uploads first and deletes only after the upload succeeded; a
// failed upload leaves the rows in place for the next run.
type Archiver struct {
	writer domain.BlobWriter
	odds   OddsArchiveStore
}

// NewArchiver creates an Archiver over the given writer and odds store.
func NewArchiver(writer domain.BlobWriter, odds OddsArchiveStore) *Archiver {
	return &Archiver{writer: writer, odds: odds}
}

// ArchiveOdds uploads all quotes captured before the cutoff to
// archive/odds/YYYY-MM.jsonl and then deletes them from the primary store.
// It returns the number of archived rows.
func (a *Archiver) ArchiveOdds(ctx context.Context, before time.Time) (int64, error) {
	quotes, err := a.odds.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive odds query: %w", err)
	}
	if len(quotes) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(quotes)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive odds marshal: %w", err)
	}

	path := archivePath("odds", before)
	if err := a.writer.Put(ctx, path, buf, "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive odds upload: %w", err)
	}

	deleted, err := a.odds.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(quotes)), fmt.Errorf("s3blob: archive odds trim: %w", err)
	}
	_ = deleted

	return int64(len(quotes)), nil
}

// SnapshotRawPayload stores one raw provider response under
// raw/{league}/{timestamp}.json for later replay and debugging.
func (a *Archiver) SnapshotRawPayload(ctx context.Context, league domain.League, fetchedAt time.Time, payload []byte) error {
	path := fmt.Sprintf("raw/%s/%s.json", league, fetchedAt.UTC().Format("2006-01-02T15-04-05Z"))
	if err := a.writer.Put(ctx, path, payload, "application/json"); err != nil {
		return fmt.Errorf("s3blob: snapshot %s payload: %w", league, err)
	}
	return nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/odds/2025-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
