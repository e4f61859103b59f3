package hostabi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvJSONHasExactKeys(t *testing.T) {
	data, err := EnvJSON()
	require.NoError(t, err)

	var decoded map[string]json.Number
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Len(t, decoded, 2)
	assert.Contains(t, decoded, "timestamp")
	assert.Contains(t, decoded, "random_seed")
}

func TestEnvJSONVariesPerCall(t *testing.T) {
	a, err := EnvJSON()
	require.NoError(t, err)
	b, err := EnvJSON()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
