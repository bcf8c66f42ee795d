// Package createrecord provides the create-record step handler.
package createrecord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tasklab/automation/pkg/models"
)

// ErrCollectionRequired is returned when the configuration is missing
// the target collection.
var ErrCollectionRequired = errors.New("missing or invalid 'collection' in configuration")

// Store receives the created records. The default is an in-process
// store; deployments plug in their own backend.
type Store interface {
	Insert(ctx context.Context, collection string, record map[string]any) error
}

// MemoryStore keeps created records in memory, grouped by collection.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]map[string]any
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]map[string]any)}
}

func (s *MemoryStore) Insert(_ context.Context, collection string, record map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[collection] = append(s.records[collection], record)

	return nil
}

// Records returns a copy of the collection's contents.
func (s *MemoryStore) Records(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, len(s.records[collection]))
	copy(out, s.records[collection])

	return out
}

// Handler writes one record into a named collection.
type Handler struct {
	collection string
	data       map[string]any
	store      Store
}

func NewHandler(config map[string]any, store Store) (*Handler, error) {
	collection, ok := config["collection"].(string)
	if !ok || collection == "" {
		return nil, ErrCollectionRequired
	}

	data, _ := config["data"].(map[string]any)

	return &Handler{
		collection: collection,
		data:       data,
		store:      store,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input map[string]any, _ *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("module", "create_record_handler")

	data := h.data
	if configured, ok := input["data"].(map[string]any); ok {
		data = configured
	}

	record := make(map[string]any, len(data)+2)
	for k, v := range data {
		record[k] = v
	}

	recordID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)
	record["id"] = recordID
	record["created_at"] = createdAt

	if err := h.store.Insert(ctx, h.collection, record); err != nil {
		return nil, fmt.Errorf("failed to insert record into %s: %w", h.collection, err)
	}

	logger.InfoContext(ctx, "Record created", "collection", h.collection, "record_id", recordID)

	return map[string]any{
		"record_id":  recordID,
		"collection": h.collection,
		"created_at": createdAt,
		"record":     record,
	}, nil
}
