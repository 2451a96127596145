package service

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"

	"ocp-installer-helper/internal/artifact"
	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
)

var ErrInvalidPullSecret = errors.New("pull secret must be a JSON object with an \"auths\" object")

// MirrorService prepares the oc-mirror inputs: the imageset configuration,
// registry credentials and the mirror registry CA.
type MirrorService struct {
	cfg     *config.Config
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewMirrorService(cfg *config.Config, logger *logger.Logger, m *metrics.Metrics) *MirrorService {
	return &MirrorService{cfg: cfg, logger: logger, metrics: m}
}

// ImageSetPath is where the imageset configuration is written and later read
// by oc mirror.
func (s *MirrorService) ImageSetPath() string {
	return filepath.Join(s.cfg.Paths.MirrorConfigDir(), artifact.ImageSetConfigFile)
}

func (s *MirrorService) GenerateImageSet(req artifact.ImageSetRequest) *model.Result {
	isc, err := artifact.NewImageSetConfiguration(req, filepath.Join(s.cfg.Paths.OCMirrorDir(), "metadata"))
	if err != nil {
		s.logger.ValidationRejected("generate-imageset", err)
		return &model.Result{Success: false, Error: err.Error()}
	}

	path, err := artifact.NewWriter(s.cfg.Paths.MirrorConfigDir()).WriteYAML(artifact.ImageSetConfigFile, isc)
	if err != nil {
		return &model.Result{Success: false, Error: fmt.Sprintf("failed to generate file: %v", err)}
	}
	s.metrics.Artifacts.WithLabelValues("imageset").Inc()
	s.logger.ArtifactWritten("imageset", path)
	return &model.Result{Success: true, Message: fmt.Sprintf("%s written to %s", artifact.ImageSetConfigFile, filepath.Dir(path))}
}

// ValidatePullSecret checks that raw is a registry auth document.
func ValidatePullSecret(raw string) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPullSecret, err)
	}
	var auths map[string]json.RawMessage
	if err := json.Unmarshal(doc["auths"], &auths); err != nil || auths == nil {
		return ErrInvalidPullSecret
	}
	return nil
}

// ApplyPullSecret stores raw as the registry auth file used by oc and
// oc-mirror.
func (s *MirrorService) ApplyPullSecret(raw string) *model.Result {
	raw = strings.TrimSpace(raw)
	if err := ValidatePullSecret(raw); err != nil {
		s.logger.ValidationRejected("apply-pull-secret", err)
		return &model.Result{Success: false, Error: err.Error()}
	}

	path := s.cfg.Paths.RegistryAuth
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return &model.Result{Success: false, Error: err.Error()}
	}
	if err := renameio.WriteFile(path, []byte(raw+"\n"), 0o600); err != nil {
		return &model.Result{Success: false, Error: fmt.Sprintf("failed to write %s: %v", path, err)}
	}
	s.metrics.Artifacts.WithLabelValues("pull-secret").Inc()
	s.logger.ArtifactWritten("pull-secret", path)
	return &model.Result{Success: true, Message: fmt.Sprintf("pull secret saved to %s", path)}
}

type registryAuth struct {
	Auth string `json:"auth"`
}

// MirrorPullSecret returns the auth document for a single mirror registry.
func MirrorPullSecret(registry, user, password string) (string, error) {
	doc := map[string]map[string]registryAuth{
		"auths": {
			registry: {Auth: base64.StdEncoding.EncodeToString([]byte(user + ":" + password))},
		},
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *MirrorService) MirrorPullSecret(req model.MirrorPullSecretRequest) *model.Result {
	secret, err := MirrorPullSecret(strings.TrimSpace(req.Registry), req.User, req.Password)
	if err != nil {
		return &model.Result{Success: false, Error: err.Error()}
	}
	return &model.Result{Success: true, Output: secret}
}

// MirrorCA reads the mirror registry root CA from the system trust store.
func (s *MirrorService) MirrorCA() *model.MirrorCAResponse {
	path := s.cfg.Paths.MirrorCA
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.MirrorCAResponse{Success: false, Error: fmt.Sprintf("%s not found; configure the mirror registry CA trust first", path)}
		}
		return &model.MirrorCAResponse{Success: false, Error: fmt.Sprintf("failed to read %s: %v", path, err)}
	}
	return &model.MirrorCAResponse{Success: true, CAContent: string(data)}
}
