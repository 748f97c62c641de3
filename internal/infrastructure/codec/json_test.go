package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisyuska/paper-trail/internal/domain/entities"
)

func TestJSON_Attributes(t *testing.T) {
	c := JSON{}
	attrs := map[string]any{
		"name":   "anvil",
		"qty":    float64(3),
		"active": true,
		"note":   nil,
	}

	data, err := c.MarshalAttributes(attrs)
	require.NoError(t, err)

	decoded, err := c.UnmarshalAttributes(data)
	require.NoError(t, err)
	assert.Equal(t, attrs, decoded)

	t.Run("corrupt input", func(t *testing.T) {
		_, err := c.UnmarshalAttributes([]byte("{"))
		assert.Error(t, err)
	})
}

func TestJSON_Changes(t *testing.T) {
	c := JSON{}
	changes := map[string]entities.Change{
		"name": {Old: "a", New: "b"},
		"qty":  {Old: nil, New: float64(3)},
	}

	data, err := c.MarshalChanges(changes)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":["a","b"],"qty":[null,3]}`, string(data),
		"diffs encode as {attribute: [old, new]}")

	decoded, err := c.UnmarshalChanges(data)
	require.NoError(t, err)
	assert.Equal(t, changes, decoded)

	t.Run("corrupt input", func(t *testing.T) {
		_, err := c.UnmarshalChanges([]byte(`{"name":"not-a-pair"}`))
		assert.Error(t, err)
	})
}
