package pgstac

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stac-loader/internal/ingest"
)

const defaultAcquireTimeout = 5 * time.Second

// Loader performs idempotent bulk upserts of collection batches into the
// catalog store. Each load checks out a dedicated connection so a failed
// statement never leaks state into another collection's load.
type Loader struct {
	DB *sql.DB

	// AcquireTimeout bounds the wait for a pool connection.
	// Zero means defaultAcquireTimeout.
	AcquireTimeout time.Duration
}

// LoadBatch upserts every item in the batch as one statement. Redelivered
// items overwrite their existing rows, so replaying a batch is safe.
func (l *Loader) LoadBatch(ctx context.Context, batch *ingest.CollectionBatch) error {
	if batch.Len() == 0 {
		return nil
	}

	timeout := l.AcquireTimeout
	if timeout <= 0 {
		timeout = defaultAcquireTimeout
	}
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	conn, err := l.DB.Conn(acquireCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	query, args, err := upsertStatement(batch)
	if err != nil {
		return err
	}
	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %d items into %q: %w", batch.Len(), batch.Collection, err)
	}
	return nil
}

// upsertStatement builds one multi-row INSERT … ON CONFLICT DO UPDATE for
// the whole batch. Batch sizes are bounded by the queue's delivery limit,
// so a single statement stays well under placeholder limits.
func upsertStatement(batch *ingest.CollectionBatch) (string, []any, error) {
	const columns = 5

	values := make([]string, 0, batch.Len())
	args := make([]any, 0, batch.Len()*columns)
	for i, item := range batch.Items {
		base := i * columns
		values = append(values, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))

		content := []byte(item.Raw)
		if len(content) == 0 {
			encoded, err := json.Marshal(item)
			if err != nil {
				return "", nil, fmt.Errorf("encode item %q: %w", item.ID, err)
			}
			content = encoded
		}

		var geometry any
		if len(item.Geometry) > 0 {
			geometry = []byte(item.Geometry)
		}

		var datetime any
		if ts, ok := item.Datetime(); ok {
			datetime = ts
		}

		args = append(args, batch.Collection, item.ID, geometry, datetime, content)
	}

	query := `
INSERT INTO items (collection, id, geometry, datetime, content)
VALUES ` + strings.Join(values, ", ") + `
ON CONFLICT (collection, id) DO UPDATE SET
	geometry = EXCLUDED.geometry,
	datetime = EXCLUDED.datetime,
	content = EXCLUDED.content,
	updated_at = now()`

	return query, args, nil
}

var _ ingest.BatchLoader = (*Loader)(nil)
