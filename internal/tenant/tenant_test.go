package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	t.Setenv("MCP_PORT_SOFIA", "8011")
	t.Setenv("CHANNEL_IDS_SOFIA", "1,19")

	spec, err := Resolve("sofia")
	require.NoError(t, err)
	assert.Equal(t, Spec{Name: "sofia", Port: 8011, Channels: []int{1, 19}}, spec)
	assert.Equal(t, 1, spec.Primary())
	assert.True(t, spec.HasChannel(19))
	assert.False(t, spec.HasChannel(7))
}

func TestResolve_MissingPort(t *testing.T) {
	t.Setenv("CHANNEL_IDS_ALISA", "3")

	_, err := Resolve("alisa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MCP_PORT_ALISA")
}

func TestResolve_MissingChannels(t *testing.T) {
	t.Setenv("MCP_PORT_ALISA", "8012")

	_, err := Resolve("alisa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHANNEL_IDS_ALISA")
}

func TestSpecPrimary_Empty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Spec{}.Primary())
}
