// Package clusterdata holds the flat key/value cluster inventory uploaded as
// CSV and shared by every installer page.
package clusterdata

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio"
	"github.com/samber/lo"
)

const FileName = "cluster_info.json"

var (
	ErrNotFound       = errors.New("cluster info has not been uploaded")
	ErrTooFewRows     = errors.New("csv needs at least two rows (keys, values)")
	ErrColumnMismatch = errors.New("csv key and value rows have different column counts")
)

// Dataset maps inventory keys to values. Per-host fields use the
// "<field>_<hostname>" key form, for example "nodeip_master0".
type Dataset map[string]string

func (d Dataset) Get(key string) string {
	return d[key]
}

// HostField returns the value of field for the short hostname.
func (d Dataset) HostField(field, hostname string) string {
	return d[field+"_"+hostname]
}

func (d Dataset) Empty() bool {
	return len(d) == 0
}

func (d Dataset) Keys() []string {
	keys := lo.Keys(d)
	sort.Strings(keys)
	return keys
}

// ParseCSV reads the first row as keys and the second row as values.
func ParseCSV(r io.Reader) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	keys, err := reader.Read()
	if err == io.EOF {
		return nil, ErrTooFewRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key row: %w", err)
	}
	values, err := reader.Read()
	if err == io.EOF {
		return nil, ErrTooFewRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read value row: %w", err)
	}
	if len(keys) != len(values) {
		return nil, fmt.Errorf("%w: %d keys, %d values", ErrColumnMismatch, len(keys), len(values))
	}

	ds := make(Dataset, len(keys))
	for i, k := range keys {
		ds[k] = values[i]
	}
	return ds, nil
}

// Store persists the dataset as JSON in a data directory.
type Store struct {
	path string
}

func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Save(ds Dataset) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	data, err := json.MarshalIndent(ds, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal cluster info: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) Load() (Dataset, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	ds := Dataset{}
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return ds, nil
}
