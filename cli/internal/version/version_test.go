package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/satishbabariya/schemadiff/migrate/history"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, history.FormatVersion, info.HistoryFormat)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.FullString(), "history format: "+history.FormatVersion)
}

func TestApplyVCS(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2024-03-15T10:30:45Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	t.Run("fills missing fields", func(t *testing.T) {
		info := Info{Version: "1.2.0"}
		applyVCS(&info, settings)
		assert.Equal(t, "0123456789ab", info.ShortCommit())
		assert.Equal(t, "2024-03-15T10:30:45Z", info.BuildDate)
		assert.True(t, info.Modified)
		assert.Contains(t, info.FullString(), "0123456789ab-dirty")
	})

	t.Run("link time values win", func(t *testing.T) {
		info := Info{GitCommit: "abc", BuildDate: "today"}
		applyVCS(&info, settings)
		assert.Equal(t, "abc", info.ShortCommit())
		assert.Equal(t, "today", info.BuildDate)
	})

	t.Run("unknown commit", func(t *testing.T) {
		info := Info{Version: "1.2.0", Platform: "linux/amd64"}
		assert.Equal(t, "schemadiff 1.2.0 (unknown, linux/amd64)", info.String())
		assert.Contains(t, info.FullString(), "built:          unknown")
	})
}
