package service

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/pkg/logger"
)

var ErrNotCSV = errors.New("only .csv files are accepted")

// ClusterService stores the uploaded cluster inventory.
type ClusterService struct {
	store  *clusterdata.Store
	logger *logger.Logger
}

func NewClusterService(store *clusterdata.Store, logger *logger.Logger) *ClusterService {
	return &ClusterService{store: store, logger: logger}
}

// Upload parses a CSV inventory and replaces the stored dataset.
func (s *ClusterService) Upload(filename string, r io.Reader) (string, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return "", fmt.Errorf("%w: %q", ErrNotCSV, filename)
	}
	ds, err := clusterdata.ParseCSV(r)
	if err != nil {
		return "", err
	}
	if err := s.store.Save(ds); err != nil {
		return "", err
	}
	s.logger.ArtifactWritten("cluster-info", s.store.Path())
	return s.store.Path(), nil
}

func (s *ClusterService) Load() (clusterdata.Dataset, error) {
	return s.store.Load()
}
