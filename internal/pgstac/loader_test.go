package pgstac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"stac-loader/internal/ingest"
	"stac-loader/internal/stac"
)

func testBatch(t *testing.T, collection string, itemIDs ...string) *ingest.CollectionBatch {
	t.Helper()
	batch := &ingest.CollectionBatch{Collection: collection}
	for i, id := range itemIDs {
		payload := fmt.Sprintf(`{
			"type": "Feature",
			"id": %q,
			"collection": %q,
			"geometry": {"type": "Point", "coordinates": [0, 0]},
			"properties": {"datetime": "2024-08-01T00:00:00Z"}
		}`, id, collection)
		item, err := stac.DecodeItem([]byte(payload))
		if err != nil {
			t.Fatalf("DecodeItem: %v", err)
		}
		batch.Items = append(batch.Items, item)
		batch.MessageIDs = append(batch.MessageIDs, fmt.Sprintf("m%d", i+1))
	}
	return batch
}

func TestLoadBatchUpsertsAllItemsInOneStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	batch := testBatch(t, "sentinel-2", "s2-1", "s2-2")

	mock.ExpectExec("INSERT INTO items").
		WithArgs(
			"sentinel-2", "s2-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"sentinel-2", "s2-2", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	loader := &Loader{DB: db}
	if err := loader.LoadBatch(context.Background(), batch); err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestLoadBatchIdempotentUnderRedelivery(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	batch := testBatch(t, "landsat", "ls-1")

	// Redelivery replays the identical statement; the conflict clause
	// turns the second insert into an overwrite.
	mock.ExpectExec("ON CONFLICT \\(collection, id\\) DO UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("ON CONFLICT \\(collection, id\\) DO UPDATE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	loader := &Loader{DB: db}
	if err := loader.LoadBatch(context.Background(), batch); err != nil {
		t.Fatalf("first LoadBatch: %v", err)
	}
	if err := loader.LoadBatch(context.Background(), batch); err != nil {
		t.Fatalf("redelivered LoadBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestLoadBatchPropagatesStoreError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	batch := testBatch(t, "aster", "a-1")

	storeErr := errors.New("relation does not exist")
	mock.ExpectExec("INSERT INTO items").WillReturnError(storeErr)

	loader := &Loader{DB: db}
	err = loader.LoadBatch(context.Background(), batch)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"aster"`) {
		t.Fatalf("error should name the collection: %v", err)
	}
}

func TestLoadBatchEmptyBatchIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	loader := &Loader{DB: db}
	if err := loader.LoadBatch(context.Background(), &ingest.CollectionBatch{Collection: "empty"}); err != nil {
		t.Fatalf("LoadBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements expected: %v", err)
	}
}

func TestUpsertStatementShape(t *testing.T) {
	batch := testBatch(t, "modis", "mod-1", "mod-2", "mod-3")

	query, args, err := upsertStatement(batch)
	if err != nil {
		t.Fatalf("upsertStatement: %v", err)
	}

	if got := strings.Count(query, "($"); got != 3 {
		t.Fatalf("expected 3 value tuples, got %d", got)
	}
	if !strings.Contains(query, "ON CONFLICT (collection, id) DO UPDATE") {
		t.Fatalf("missing conflict clause:\n%s", query)
	}
	if len(args) != 15 {
		t.Fatalf("expected 15 args, got %d", len(args))
	}
	// Tuple layout: collection, id, geometry, datetime, content.
	if args[0] != "modis" || args[1] != "mod-1" {
		t.Fatalf("unexpected first tuple: %v %v", args[0], args[1])
	}
	if args[5] != "modis" || args[6] != "mod-2" {
		t.Fatalf("unexpected second tuple: %v %v", args[5], args[6])
	}
	content, ok := args[4].([]byte)
	if !ok || !strings.Contains(string(content), `"mod-1"`) {
		t.Fatalf("content arg should carry the raw item payload")
	}
}
