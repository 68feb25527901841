package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyConstraint(t *testing.T) {
	assert.True(t, applyConstraint("EQ", "standalone", "standalone"))
	assert.False(t, applyConstraint("EQ", "standalone", "cluster"))
	assert.True(t, applyConstraint("NE", "standalone", "cluster"))
	assert.True(t, applyConstraint("LT", "5", "10"))
	assert.False(t, applyConstraint("LT", "10", "5"))
	assert.True(t, applyConstraint("GE", "10", "10"))
	assert.False(t, applyConstraint("GT", "not-a-number", "10"))
}

func TestParseInfo(t *testing.T) {
	raw := "# Server\r\nredis_version:7.2.0\r\nconnected_clients:3\r\n"
	dict := parseInfo(raw)
	assert.Equal(t, "7.2.0", dict["redis_version"])
	assert.Equal(t, "3", dict["connected_clients"])
}
