package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDictionary(t *testing.T) {
	d, err := DefaultDictionary()
	require.NoError(t, err)

	assert.Greater(t, d.Len(), 20)
	for _, city := range []string{"Shanghai", "Beijing", "Hangzhou", "Shenzhen", "Chengdu", "Guangzhou", "Puer", "Hong Kong"} {
		_, ok := d.Lookup(city)
		assert.True(t, ok, "built-in table should contain %s", city)
	}
	assert.Equal(t, "香港", d.DisplayName("Hong Kong"))
	assert.Equal(t, "普洱", d.DisplayName("Puer"))
}

func TestParseSeed(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		seed, err := ParseSeed(strings.NewReader(`
locations:
  - id: Dali
    names: [大理, 洱海]
`))
		require.NoError(t, err)
		require.Len(t, seed.Locations, 1)
		assert.Equal(t, "Dali", seed.Locations[0].ID)
		assert.Equal(t, []string{"大理", "洱海"}, seed.Locations[0].Names)
	})

	t.Run("empty document", func(t *testing.T) {
		seed, err := ParseSeed(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, seed.Locations)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("locations:\n  - names: [大理]\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no id")
	})

	t.Run("missing names", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("locations:\n  - id: Dali\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no names")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := ParseSeed(strings.NewReader("locations: [:"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse seed")
	})
}

func TestLoadDictionary_ExtendsDefault(t *testing.T) {
	extra := strings.NewReader(`
locations:
  - id: Dali
    names: [洱海]
  - id: Jingdezhen
    names: [景德镇]
`)
	d, err := LoadDictionary(DefaultSeed(), extra)
	require.NoError(t, err)

	entry, ok := d.FindLongestMatch("在洱海边骑车")
	require.True(t, ok)
	assert.Equal(t, "Dali", entry.CanonicalID)
	assert.Equal(t, "大理", d.DisplayName("Dali"), "primary display name comes from the first registration")

	entry, ok = d.FindLongestMatch("景德镇买瓷器")
	require.True(t, ok)
	assert.Equal(t, "Jingdezhen", entry.CanonicalID)
}

func TestLoadDictionary_DuplicateAcrossSources(t *testing.T) {
	extra := strings.NewReader(`
locations:
  - id: Suzhou-Anhui
    names: [苏州]
`)
	_, err := LoadDictionary(DefaultSeed(), extra)
	require.Error(t, err)

	var dup *DuplicateLocationError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "Suzhou", dup.Existing)
	assert.Equal(t, "Suzhou-Anhui", dup.Conflicting)
}
