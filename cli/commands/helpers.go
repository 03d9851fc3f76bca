package commands

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/satishbabariya/schemadiff/cli/internal/config"
	"github.com/satishbabariya/schemadiff/migrate/diff"
	"github.com/satishbabariya/schemadiff/migrate/diff/flavour"
	"github.com/satishbabariya/schemadiff/migrate/history"
	"github.com/satishbabariya/schemadiff/migrate/introspect"
)

// detectProvider guesses the provider from a connection string
func detectProvider(connStr, fallback string) string {
	switch {
	case strings.HasPrefix(connStr, "postgres://"), strings.HasPrefix(connStr, "postgresql://"):
		return "postgresql"
	case strings.HasPrefix(connStr, "cockroachdb://"):
		return "cockroachdb"
	case strings.HasPrefix(connStr, "mysql://"), strings.Contains(connStr, "@tcp("):
		return "mysql"
	case strings.HasPrefix(connStr, "file:"), strings.HasSuffix(connStr, ".db"), strings.HasSuffix(connStr, ".sqlite"):
		return "sqlite"
	}
	return fallback
}

// normalizeProviderForDriver maps a provider to its database/sql driver name
func normalizeProviderForDriver(provider string) string {
	switch provider {
	case "postgresql", "postgres", "cockroachdb":
		return "postgres"
	case "sqlite":
		return "sqlite3"
	default:
		return provider
	}
}

// driverDSN strips URL schemes the drivers do not understand
func driverDSN(provider, connStr string) string {
	switch provider {
	case "mysql":
		return strings.TrimPrefix(connStr, "mysql://")
	case "cockroachdb":
		if rest, ok := strings.CutPrefix(connStr, "cockroachdb://"); ok {
			return "postgresql://" + rest
		}
	}
	return connStr
}

// redactURL hides the password of a connection URL for messages
func redactURL(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	return u.Redacted()
}

// openDatabaseSource connects to the database and exposes it as a schema source
func openDatabaseSource(cfg *config.Config, connStr string) (diff.SchemaSource, *sql.DB, error) {
	provider := detectProvider(connStr, cfg.Provider)
	db, err := sql.Open(normalizeProviderForDriver(provider), driverDSN(provider, connStr))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	intr, err := introspect.NewIntrospector(db, provider, cfg.Schema)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return introspect.NewSource(redactURL(connStr), intr), db, nil
}

// diffOptions builds the diff options from the configuration
func diffOptions(cfg *config.Config, connStr string) ([]diff.Option, error) {
	provider := cfg.Provider
	if connStr != "" {
		provider = detectProvider(connStr, provider)
	}
	f, err := flavour.ForProvider(provider)
	if err != nil {
		return nil, err
	}

	opts := []diff.Option{
		diff.WithFlavour(f),
		diff.WithCheckColumnDefOrder(cfg.CheckColumnDefOrder),
		diff.WithCheckDBComment(cfg.CheckDBComment),
		diff.WithSuppressSchema(cfg.SuppressSchema),
		diff.WithCrossSchema(cfg.CrossSchema),
	}
	if cfg.CraftMetaDir != "" {
		opts = append(opts, diff.WithCraftMetaDir(config.AppFs, cfg.CraftMetaDir, nil))
	}
	return opts, nil
}

func newHistoryManager(cfg *config.Config) *history.Manager {
	return history.NewManager(config.AppFs, cfg.HistoryPath)
}
