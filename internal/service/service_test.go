package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
	"ocp-installer-helper/internal/pkg/shell"
)

// fakeRunner records command lines and answers Run with a canned result.
type fakeRunner struct {
	mu     sync.Mutex
	cmds   []string
	result shell.CommandResult
	err    error
}

func (f *fakeRunner) Run(_ context.Context, cmd string) (*shell.CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	res := f.result
	return &res, f.err
}

func (f *fakeRunner) Start(ctx context.Context, cmd string, onLine func(string)) (*shell.Process, error) {
	f.mu.Lock()
	f.cmds = append(f.cmds, cmd)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return shell.NewExecutor().Start(ctx, "echo "+strings.ReplaceAll(f.result.Stdout, "\n", "; echo "), onLine)
}

func (f *fakeRunner) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cmds) == 0 {
		return ""
	}
	return f.cmds[len(f.cmds)-1]
}

var errFake = errors.New("exit status 1")

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		Paths: config.PathsConfig{
			BaseDir:      base,
			DataDir:      base + "/data",
			KeyDir:       base + "/keys",
			ConfigDir:    base + "/create_config",
			MirrorCA:     base + "/rootCA.pem",
			RegistryAuth: base + "/pull-secret.json",
		},
		Mirror: config.MirrorConfig{
			ClientsURL:      "https://mirror.example.com/ocp/",
			CatalogRegistry: "registry.redhat.io/redhat",
			CommandTimeout:  10,
		},
		Bastion: config.BastionConfig{Interface: "enp1s0", UseSudo: true},
	}
}

func testDeps(t *testing.T) (*config.Config, *logger.Logger, *metrics.Metrics) {
	return testConfig(t), logger.NewNop(), metrics.New(nil)
}
