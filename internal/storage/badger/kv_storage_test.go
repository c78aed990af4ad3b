package badger

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/ratio/internal/interfaces"
)

func newTestKVStorage(t *testing.T) interfaces.KeyValueStorage {
	t.Helper()

	tmpDir := t.TempDir()

	options := badgerhold.DefaultOptions
	options.Dir = tmpDir
	options.ValueDir = tmpDir
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	db := &BadgerDB{store: store}
	return NewKVStorage(db, arbor.NewLogger())
}

func TestKVStorage_SetGet(t *testing.T) {
	storage := newTestKVStorage(t)
	ctx := context.Background()

	if err := storage.Set(ctx, "anthropic_api_key", "sk-test", "API key"); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}

	value, err := storage.Get(ctx, "anthropic_api_key")
	if err != nil {
		t.Fatalf("Failed to get key: %v", err)
	}
	if value != "sk-test" {
		t.Errorf("Expected sk-test, got %s", value)
	}

	// Keys are case-insensitive
	value, err = storage.Get(ctx, "ANTHROPIC_API_KEY")
	if err != nil {
		t.Fatalf("Failed to get uppercased key: %v", err)
	}
	if value != "sk-test" {
		t.Errorf("Expected sk-test, got %s", value)
	}
}

func TestKVStorage_GetMissing(t *testing.T) {
	storage := newTestKVStorage(t)

	_, err := storage.Get(context.Background(), "missing")
	if err != interfaces.ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

func TestKVStorage_SetPreservesCreatedAt(t *testing.T) {
	storage := newTestKVStorage(t)
	ctx := context.Background()

	if err := storage.Set(ctx, "key", "v1", ""); err != nil {
		t.Fatal(err)
	}
	first, err := storage.GetPair(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}

	if err := storage.Set(ctx, "key", "v2", ""); err != nil {
		t.Fatal(err)
	}
	second, err := storage.GetPair(ctx, "key")
	if err != nil {
		t.Fatal(err)
	}

	if second.Value != "v2" {
		t.Errorf("Expected v2, got %s", second.Value)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("CreatedAt should be preserved on update")
	}
}

func TestKVStorage_Delete(t *testing.T) {
	storage := newTestKVStorage(t)
	ctx := context.Background()

	if err := storage.Set(ctx, "key", "value", ""); err != nil {
		t.Fatal(err)
	}
	if err := storage.Delete(ctx, "key"); err != nil {
		t.Fatalf("Failed to delete key: %v", err)
	}
	if _, err := storage.Get(ctx, "key"); err != interfaces.ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound after delete, got %v", err)
	}
	if err := storage.Delete(ctx, "key"); err != interfaces.ErrKeyNotFound {
		t.Errorf("Expected ErrKeyNotFound deleting missing key, got %v", err)
	}
}

func TestKVStorage_ListByPrefix(t *testing.T) {
	storage := newTestKVStorage(t)
	ctx := context.Background()

	entries := map[string]string{
		"rawdoc:US0378331005": `{"cached": 1}`,
		"rawdoc:US5949181045": `{"cached": 2}`,
		"anthropic_api_key":   "sk-test",
	}
	for k, v := range entries {
		if err := storage.Set(ctx, k, v, ""); err != nil {
			t.Fatal(err)
		}
	}

	pairs, err := storage.ListByPrefix(ctx, "rawdoc:")
	if err != nil {
		t.Fatalf("Failed to list by prefix: %v", err)
	}
	if len(pairs) != 2 {
		t.Errorf("Expected 2 cached documents, got %d", len(pairs))
	}
}

func TestKVStorage_GetAll(t *testing.T) {
	storage := newTestKVStorage(t)
	ctx := context.Background()

	if err := storage.Set(ctx, "a", "1", ""); err != nil {
		t.Fatal(err)
	}
	if err := storage.Set(ctx, "b", "2", ""); err != nil {
		t.Fatal(err)
	}

	all, err := storage.GetAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all["a"] != "1" || all["b"] != "2" {
		t.Errorf("Unexpected map contents: %v", all)
	}
}
