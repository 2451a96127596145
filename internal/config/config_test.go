package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5023, cfg.Server.Port)
	assert.Equal(t, "/ocp_install", cfg.Paths.BaseDir)
	assert.Equal(t, "/ocp_install/oc-mirror/mirror-config", cfg.Paths.MirrorConfigDir())
	assert.Equal(t, "/ocp_install/pull-secret.json", cfg.Paths.RegistryAuth)
	assert.Equal(t, "0.0.0.0:5023", cfg.Addr())
}

func Test_LoadConfig_EnvAndFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "helper.yaml")
	require.NoError(t, os.WriteFile(file, []byte("paths:\n  base_dir: /srv/ocp\nmirror:\n  command_timeout: 60\n"), 0o644))

	t.Setenv("OCP_HELPER_CONFIG", file)
	t.Setenv("OCP_HELPER_SERVER_PORT", "8088")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, "/srv/ocp", cfg.Paths.BaseDir)
	assert.Equal(t, 60, cfg.Mirror.CommandTimeout)
	assert.Equal(t, "/srv/ocp/versions.txt", cfg.Paths.VersionFile())
}
