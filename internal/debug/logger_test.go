package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter(t *testing.T) {
	t.Cleanup(func() { InitWithWriter(&bytes.Buffer{}, false) })

	var buf bytes.Buffer
	InitWithWriter(&buf, true)
	assert.True(t, Enabled())

	With("table", "MEMBER").Debug("analyzed")
	assert.Contains(t, buf.String(), "msg=analyzed")
	assert.Contains(t, buf.String(), "table=MEMBER")

	buf.Reset()
	InitWithWriter(&buf, false)
	assert.False(t, Enabled())
	Error("dropped")
	assert.Empty(t, buf.String())
}
