package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paths   PathsConfig   `mapstructure:"paths"`
	Mirror  MirrorConfig  `mapstructure:"mirror"`
	Bastion BastionConfig `mapstructure:"bastion"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`
	WriteTimeout   int      `mapstructure:"write_timeout"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type PathsConfig struct {
	BaseDir      string `mapstructure:"base_dir"`
	DataDir      string `mapstructure:"data_dir"`
	KeyDir       string `mapstructure:"key_dir"`
	ConfigDir    string `mapstructure:"config_dir"`
	MirrorCA     string `mapstructure:"mirror_ca"`
	RegistryAuth string `mapstructure:"registry_auth"`
}

type MirrorConfig struct {
	ClientsURL      string `mapstructure:"clients_url"`
	CatalogRegistry string `mapstructure:"catalog_registry"`
	CommandTimeout  int    `mapstructure:"command_timeout"`
}

type BastionConfig struct {
	Interface string `mapstructure:"interface"`
	UseSudo   bool   `mapstructure:"use_sudo"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Derived directories under Paths.BaseDir.
func (p PathsConfig) InstallAgentDir() string { return filepath.Join(p.BaseDir, "install-agent") }
func (p PathsConfig) OCMirrorDir() string     { return filepath.Join(p.BaseDir, "oc-mirror") }
func (p PathsConfig) MirrorConfigDir() string { return filepath.Join(p.OCMirrorDir(), "mirror-config") }
func (p PathsConfig) MirrorImagesDir() string { return filepath.Join(p.OCMirrorDir(), "mirror-images") }
func (p PathsConfig) OperatorListDir() string { return filepath.Join(p.BaseDir, "operator_lists") }
func (p PathsConfig) VersionFile() string     { return filepath.Join(p.BaseDir, "versions.txt") }

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5023)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5023"})

	v.SetDefault("paths.base_dir", "/ocp_install")
	v.SetDefault("paths.data_dir", "data")
	v.SetDefault("paths.key_dir", "/ocp_install/generated_keys")
	v.SetDefault("paths.config_dir", "/ocp_install/create_config")
	v.SetDefault("paths.mirror_ca", "/etc/pki/ca-trust/source/anchors/rootCA.pem")
	v.SetDefault("paths.registry_auth", "")

	v.SetDefault("mirror.clients_url", "https://mirror.openshift.com/pub/openshift-v4/x86_64/clients/ocp/")
	v.SetDefault("mirror.catalog_registry", "registry.redhat.io/redhat")
	v.SetDefault("mirror.command_timeout", 1800)

	v.SetDefault("bastion.interface", "enp1s0")
	v.SetDefault("bastion.use_sudo", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// LoadConfig reads .env (if present), the optional YAML file named by
// OCP_HELPER_CONFIG, and OCP_HELPER_* environment overrides such as
// OCP_HELPER_SERVER_PORT.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OCP_HELPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Paths.RegistryAuth == "" {
		cfg.Paths.RegistryAuth = filepath.Join(cfg.Paths.BaseDir, "pull-secret.json")
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
