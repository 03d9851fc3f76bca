// Package config loads the schemadiff CLI configuration.
package config

import (
	"errors"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// Config holds the application configuration
type Config struct {
	DatabaseURL         string
	Provider            string
	Schema              string
	SnapshotPath        string
	HistoryPath         string
	CraftMetaDir        string
	CheckColumnDefOrder bool
	CheckDBComment      bool
	SuppressSchema      bool
	CrossSchema         bool
	HistoryLimit        int
}

// LoadConfig loads configuration from the config file, the environment and
// .env files. Environment variables use the SCHEMADIFF_ prefix.
func LoadConfig() (*Config, error) {
	v := viper.New()

	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	v.SetConfigName(".schemadiff")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(home)
	v.AddConfigPath(filepath.Join(home, ".config", "schemadiff"))

	return load(v, AppFs)
}

func load(v *viper.Viper, fs afero.Fs) (*Config, error) {
	// .env first, .env.local overrides it
	if _, err := fs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := fs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	v.SetFs(fs)
	v.SetEnvPrefix("SCHEMADIFF")
	v.AutomaticEnv()

	v.SetDefault("provider", "postgresql")
	v.SetDefault("schema", "")
	v.SetDefault("snapshot_path", "schema/snapshot.json")
	v.SetDefault("history_path", "schema/history.diffmap")
	v.SetDefault("craft_meta_dir", "")
	v.SetDefault("check_column_def_order", false)
	v.SetDefault("check_db_comment", false)
	v.SetDefault("suppress_schema", false)
	v.SetDefault("cross_schema", false)
	v.SetDefault("history_limit", 10)
	_ = v.BindEnv("database_url", "SCHEMADIFF_DATABASE_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		DatabaseURL:         v.GetString("database_url"),
		Provider:            v.GetString("provider"),
		Schema:              v.GetString("schema"),
		SnapshotPath:        v.GetString("snapshot_path"),
		HistoryPath:         v.GetString("history_path"),
		CraftMetaDir:        v.GetString("craft_meta_dir"),
		CheckColumnDefOrder: v.GetBool("check_column_def_order"),
		CheckDBComment:      v.GetBool("check_db_comment"),
		SuppressSchema:      v.GetBool("suppress_schema"),
		CrossSchema:         v.GetBool("cross_schema"),
		HistoryLimit:        v.GetInt("history_limit"),
	}, nil
}
