package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		current, latest string
		outdated        bool
	}{
		{"0.1.0", "0.2.0", true},
		{"v1.2.3", "1.2.3", false},
		{"1.10.0", "1.9.9", false},
		{"1.0.0-beta", "1.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.latest, func(t *testing.T) {
			status, err := Check(tt.current, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.outdated, status.Outdated())
		})
	}

	_, err := Check("dev", "1.0.0")
	assert.Error(t, err)
}
