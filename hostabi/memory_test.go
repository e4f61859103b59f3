package hostabi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryMB(t *testing.T) {
	cases := []struct {
		pages uint32
		mb    int64
	}{
		{0, 0},
		{16, 1},    // 16 pages * 64KiB = 1MiB
		{1024, 64}, // default cap
		{2048, 128},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.mb, MemoryMB(tc.pages))
	}
}
