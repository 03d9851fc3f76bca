package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(".schemadiff")
	v.SetConfigType("yaml")
	v.AddConfigPath("/project")
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(newViper(), afero.NewMemMapFs())
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Provider)
	assert.Equal(t, "schema/snapshot.json", cfg.SnapshotPath)
	assert.Equal(t, "schema/history.diffmap", cfg.HistoryPath)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.False(t, cfg.CheckColumnDefOrder)
	assert.False(t, cfg.CheckDBComment)
}

func TestLoad_FileAndEnv(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.schemadiff.yaml", []byte(`
provider: sqlite
snapshot_path: db/snapshot.json
check_column_def_order: true
check_db_comment: true
craft_meta_dir: db/craft
history_limit: 5
`), 0o644))

	t.Setenv("SCHEMADIFF_HISTORY_LIMIT", "3")
	t.Setenv("DATABASE_URL", "file:test.db")

	cfg, err := load(newViper(), fs)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Provider)
	assert.Equal(t, "db/snapshot.json", cfg.SnapshotPath)
	assert.Equal(t, "db/craft", cfg.CraftMetaDir)
	assert.True(t, cfg.CheckColumnDefOrder)
	assert.True(t, cfg.CheckDBComment)
	assert.Equal(t, 3, cfg.HistoryLimit)
	assert.Equal(t, "file:test.db", cfg.DatabaseURL)
}

func TestLoad_InvalidFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/project/.schemadiff.yaml", []byte("provider: [unclosed"), 0o644))

	_, err := load(newViper(), fs)
	assert.Error(t, err)
}
