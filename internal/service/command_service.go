package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/model"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
	"ocp-installer-helper/internal/pkg/shell"
	"ocp-installer-helper/pkg/utils"
)

const (
	helmURL           = "https://mirror.openshift.com/pub/openshift-v4/clients/helm/latest/helm-linux-amd64.tar.gz"
	tektonURL         = "https://mirror.openshift.com/pub/openshift-v4/clients/pipeline/latest/tkn-linux-amd64.tar.gz"
	butaneURL         = "https://mirror.openshift.com/pub/openshift-v4/clients/butane/latest/butane"
	mirrorRegistryURL = "https://developers.redhat.com/content-gateway/rest/mirror/pub/openshift-v4/clients/mirror-registry/latest/mirror-registry.tar.gz"
	binDir            = "/usr/local/bin"
)

type commandSpec struct {
	needsVersion bool
	build        func(version string) string
}

// CommandService runs the fixed set of tool preparation commands.
type CommandService struct {
	cfg     *config.Config
	runner  shell.Runner
	logger  *logger.Logger
	metrics *metrics.Metrics
	table   map[string]commandSpec
}

func NewCommandService(cfg *config.Config, runner shell.Runner, logger *logger.Logger, m *metrics.Metrics) *CommandService {
	s := &CommandService{cfg: cfg, runner: runner, logger: logger, metrics: m}
	s.table = s.buildTable()
	return s
}

func (s *CommandService) buildTable() map[string]commandSpec {
	installDir := s.cfg.Paths.InstallAgentDir()
	mirrorDir := s.cfg.Paths.OCMirrorDir()
	clients := s.cfg.Mirror.ClientsURL

	fixed := func(cmd string) commandSpec {
		return commandSpec{build: func(string) string { return cmd }}
	}

	return map[string]commandSpec{
		"download_installer_client": {needsVersion: true, build: func(v string) string {
			return fmt.Sprintf("wget -q %s%s/openshift-install-linux.tar.gz -P %s && wget -q %s%s/openshift-client-linux.tar.gz -P %s",
				clients, v, installDir, clients, v, installDir)
		}},
		"unpack_installer_client": fixed(fmt.Sprintf("tar -xzf %s -C %s && tar -xzf %s -C %s",
			filepath.Join(installDir, "openshift-install-linux.tar.gz"), binDir,
			filepath.Join(installDir, "openshift-client-linux.tar.gz"), binDir)),
		"oc_version":                fixed("oc version"),
		"openshift_install_version": fixed("openshift-install version"),
		"download_oc_mirror": {needsVersion: true, build: func(v string) string {
			return fmt.Sprintf("wget -q %s%s/oc-mirror.tar.gz -P %s", clients, v, mirrorDir)
		}},
		"unpack_oc_mirror": fixed(fmt.Sprintf("tar -xzf %s -C %s && chmod 755 %s",
			filepath.Join(mirrorDir, "oc-mirror.tar.gz"), binDir, filepath.Join(binDir, "oc-mirror"))),
		"download_helm": fixed(fmt.Sprintf("wget -q -P %s %s", filepath.Join(mirrorDir, "helm"), helmURL)),
		"unpack_helm": fixed(fmt.Sprintf("tar -xzf %s -C %s linux-amd64/helm --strip-components=1",
			filepath.Join(mirrorDir, "helm", "helm-linux-amd64.tar.gz"), binDir)),
		"download_tekton": fixed(fmt.Sprintf("wget -q -P %s %s", filepath.Join(mirrorDir, "tekton"), tektonURL)),
		"unpack_tekton": fixed(fmt.Sprintf("tar -xzf %s -C %s",
			filepath.Join(mirrorDir, "tekton", "tkn-linux-amd64.tar.gz"), binDir)),
		"download_butane": fixed(fmt.Sprintf("wget -q -P %s %s", filepath.Join(mirrorDir, "butane"), butaneURL)),
		"install_butane": fixed(fmt.Sprintf("chmod 755 %s && mv %s %s",
			filepath.Join(mirrorDir, "butane", "butane"), filepath.Join(mirrorDir, "butane", "butane"), binDir)),
		"download_mirror_registry": fixed(fmt.Sprintf("wget -q -P %s %s", filepath.Join(mirrorDir, "mirror-registry"), mirrorRegistryURL)),
		"unpack_mirror_registry": fixed(fmt.Sprintf("tar -xzf %s -C %s",
			filepath.Join(mirrorDir, "mirror-registry", "mirror-registry.tar.gz"), filepath.Join(mirrorDir, "mirror-registry"))),
	}
}

// Keys lists the known command keys, sorted.
func (s *CommandService) Keys() []string {
	keys := make([]string, 0, len(s.table))
	for k := range s.table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve returns the command line for key, validating the version when the
// command needs one.
func (s *CommandService) Resolve(key, version string) (string, error) {
	spec, ok := s.table[key]
	if !ok {
		return "", fmt.Errorf("unknown command key %q", key)
	}
	if spec.needsVersion {
		if err := utils.ValidateRelease(version); err != nil {
			return "", err
		}
	}
	return spec.build(version), nil
}

func (s *CommandService) Execute(ctx context.Context, key, version string) *model.Result {
	cmd, err := s.Resolve(key, version)
	if err != nil {
		s.logger.ValidationRejected("execute-command", err)
		return &model.Result{Success: false, Error: err.Error()}
	}
	return s.run(ctx, key, cmd)
}

// run executes cmd with the configured timeout and maps the outcome to a
// Result carrying both output streams.
func (s *CommandService) run(ctx context.Context, key, cmd string) *model.Result {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Mirror.CommandTimeout)*time.Second)
	defer cancel()

	s.logger.CommandStart(key, cmd)
	start := time.Now()
	res, err := s.runner.Run(ctx, cmd)
	elapsed := time.Since(start)

	s.metrics.Commands.WithLabelValues(key, metrics.Result(err)).Inc()
	s.metrics.CommandSeconds.WithLabelValues(key).Observe(elapsed.Seconds())

	if err != nil {
		s.logger.CommandFailed(key, elapsed, err)
		out := &model.Result{Success: false, Error: err.Error()}
		if res != nil {
			out.Output = res.Stdout
			if res.Stderr != "" {
				out.Error = res.Stderr
			}
		}
		return out
	}

	s.logger.CommandSuccess(key, elapsed)
	return &model.Result{Success: true, Output: res.Stdout, Error: res.Stderr}
}
