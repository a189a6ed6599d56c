// Package settings resolves eav.Config from defaults, an optional config file,
// a .env file and the environment. Later sources win.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lychee-technology/eav"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. EAV_QUERY_PAGE_SIZE.
const EnvPrefix = "EAV"

// SetDefaults registers every key of eav.DefaultConfig so AutomaticEnv can see it.
func SetDefaults(v *viper.Viper) {
	d := eav.DefaultConfig()

	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.max_connections", d.Database.MaxConnections)
	v.SetDefault("database.min_connections", d.Database.MinConnections)
	v.SetDefault("database.acquire_timeout", d.Database.AcquireTimeout)
	v.SetDefault("database.connect_timeout", d.Database.ConnectTimeout)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", d.Database.ConnMaxIdleTime)

	v.SetDefault("database.table_names.entity_types", d.Database.TableNames.EntityTypes)
	v.SetDefault("database.table_names.entities", d.Database.TableNames.Entities)
	v.SetDefault("database.table_names.attributes", d.Database.TableNames.Attributes)
	v.SetDefault("database.table_names.values", d.Database.TableNames.Values)
	v.SetDefault("database.table_names.all_values", d.Database.TableNames.AllValues)
	v.SetDefault("database.table_names.all_possible_values", d.Database.TableNames.AllPossibleValues)

	v.SetDefault("query.page_size", d.Query.PageSize)
	v.SetDefault("query.alt_title_attribute", d.Query.AltTitleAttribute)
	v.SetDefault("query.case_sensitive_search", d.Query.CaseSensitiveSearch)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("server.port", d.Server.Port)
}

// BindEnv wires EAV_* variables plus the conventional DATABASE_URL and PORT.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return fmt.Errorf("bind database url: %w", err)
	}
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind server port: %w", err)
	}
	return nil
}

// LoadDotEnv exports the variables of the given .env files into the process
// environment. Missing files are skipped; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadWithViper unmarshals and validates the configuration held by v.
func LoadWithViper(v *viper.Viper) (*eav.Config, error) {
	var cfg eav.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load resolves the configuration. configFile may be empty; its format follows
// the extension (toml, yaml, json).
func Load(configFile string) (*eav.Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return LoadWithViper(v)
}
