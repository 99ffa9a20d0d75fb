package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25

	defaultSchema    = "grids"
	defaultScenarios = "scenarios"
	defaultDialect   = "sqlite"
	defaultFormat    = "text"
)

// Config represents the datagrid configuration from datagrid.yaml.
type Config struct {
	// Schema is the CUE file or directory used when a command gets no path.
	Schema string `mapstructure:"schema"`

	// Scenarios is the scenario directory used by the test command.
	Scenarios string `mapstructure:"scenarios"`

	// Dialect is the SQL dialect for compile.
	Dialect string `mapstructure:"dialect"`

	// StableOrder is a tiebreaker column appended to every ORDER BY.
	StableOrder string `mapstructure:"stable_order"`

	// Format is the default output format.
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Schema:    defaultSchema,
		Scenarios: defaultScenarios,
		Dialect:   defaultDialect,
		Format:    defaultFormat,
	}
}

// LoadConfig discovers and loads configuration with proper precedence:
// flags > env > config file > defaults. Flags are applied by the commands.
//
// Returns the loaded config, the path to the config file (empty if none found),
// and any error encountered.
func LoadConfig(explicitConfigPath string) (*Config, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("DATAGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, configPath, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("schema", d.Schema)
	v.SetDefault("scenarios", d.Scenarios)
	v.SetDefault("dialect", d.Dialect)
	v.SetDefault("stable_order", d.StableOrder)
	v.SetDefault("format", d.Format)
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for datagrid.yaml or datagrid.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range []string{"datagrid.yaml", "datagrid.yml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		// Stop at the repository root.
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}
