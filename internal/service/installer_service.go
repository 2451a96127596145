package service

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"ocp-installer-helper/internal/artifact"
	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/netconfig"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
)

// InstallerService renders install-config.yaml and agent-config.yaml into
// the configured output directory.
type InstallerService struct {
	writer  *artifact.Writer
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewInstallerService(cfg *config.Config, logger *logger.Logger, m *metrics.Metrics) *InstallerService {
	return &InstallerService{
		writer:  artifact.NewWriter(cfg.Paths.ConfigDir),
		logger:  logger,
		metrics: m,
	}
}

func (s *InstallerService) GenerateInstallConfig(p artifact.InstallConfigParams) *model.Result {
	ic, err := artifact.NewInstallConfig(p)
	if err != nil {
		s.logger.ValidationRejected("generate-install-config", err)
		return &model.Result{Success: false, Error: err.Error()}
	}
	return s.write("install-config", artifact.InstallConfigFile, ic)
}

// GenerateAgentConfig decodes the hosts array from the form, preferring
// nodes_data_hidden, and writes agent-config.yaml.
func (s *InstallerService) GenerateAgentConfig(form model.AgentConfigForm) *model.Result {
	raw := strings.TrimSpace(form.NodesDataHidden)
	if raw == "" {
		raw = strings.TrimSpace(form.NodesData)
	}

	hosts := []netconfig.Host{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &hosts); err != nil {
			err = fmt.Errorf("invalid nodes data: %w", err)
			s.logger.ValidationRejected("generate-agent-config", err)
			return &model.Result{Success: false, Error: err.Error()}
		}
	}

	ac := artifact.NewAgentConfig(form.MetadataName, form.RendezvousIP, form.AdditionalNTPSources, hosts)
	return s.write("agent-config", artifact.AgentConfigFile, ac)
}

func (s *InstallerService) write(kind, name string, v interface{}) *model.Result {
	path, err := s.writer.WriteYAML(name, v)
	if err != nil {
		return &model.Result{Success: false, Error: err.Error()}
	}
	s.metrics.Artifacts.WithLabelValues(kind).Inc()
	s.logger.ArtifactWritten(kind, path)
	return &model.Result{Success: true, Message: fmt.Sprintf("%s written to %s", name, filepath.Dir(path))}
}
