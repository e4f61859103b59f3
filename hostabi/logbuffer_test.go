package hostabi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogBufferJoin(t *testing.T) {
	buf := NewLogBuffer()
	buf.Append("first")
	buf.Append("second")

	assert.Equal(t, "first\nsecond", buf.Join())
}

func TestEmptyLogBufferJoinsToEmptyString(t *testing.T) {
	buf := NewLogBuffer()
	assert.Equal(t, "", buf.Join())
}
