package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// Keys under which the dataset is persisted.
const (
	KeyData    = "csv_data"
	KeyHeaders = "csv_headers"
)

// DatasetStore saves a dataset as two JSON values: the row objects under
// KeyData and the header list under KeyHeaders. It implements
// core.DatasetStore.
type DatasetStore struct {
	kv KV
}

var _ core.DatasetStore = (*DatasetStore)(nil)

// NewDatasetStore wraps a KV backend.
func NewDatasetStore(kv KV) *DatasetStore {
	return &DatasetStore{kv: kv}
}

// LoadDataset returns the saved dataset, or nil when either key is missing.
// Row ids are reassigned 1..n in saved order.
func (s *DatasetStore) LoadDataset(ctx context.Context) (*core.Dataset, error) {
	rawHeaders, err := s.kv.Get(ctx, KeyHeaders)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", KeyHeaders, err)
	}
	rawData, err := s.kv.Get(ctx, KeyData)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", KeyData, err)
	}

	var headers []string
	if err := json.Unmarshal(rawHeaders, &headers); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyHeaders, err)
	}
	var records []core.Record
	if err := json.Unmarshal(rawData, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyData, err)
	}
	for i, r := range records {
		if r == nil {
			records[i] = core.Record{}
		}
	}
	return core.NewDataset(headers, records), nil
}

// SaveDataset writes both keys. An empty dataset is saved as an empty row
// list so that a restart does not resurrect deleted rows.
func (s *DatasetStore) SaveDataset(ctx context.Context, ds *core.Dataset) error {
	if ds == nil {
		return s.ClearDataset(ctx)
	}

	records := ds.Records()
	if records == nil {
		records = []core.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyData, err)
	}
	headers := ds.Headers
	if headers == nil {
		headers = []string{}
	}
	rawHeaders, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyHeaders, err)
	}

	return s.kv.SetAll(ctx,
		Entry{Key: KeyData, Value: data},
		Entry{Key: KeyHeaders, Value: rawHeaders},
	)
}

// ClearDataset removes both keys.
func (s *DatasetStore) ClearDataset(ctx context.Context) error {
	return s.kv.DeleteAll(ctx, KeyData, KeyHeaders)
}
