package extractor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_ExtractFromFile(t *testing.T) {
	ext, err := NewExtractor("python")
	require.NoError(t, err)

	sites, err := ext.ExtractFromFile(filepath.Join("testdata", "sample.py"))
	require.NoError(t, err)

	byName := make(map[string]*DefSite)
	for _, s := range sites {
		byName[s.Name] = s
	}
	require.Len(t, sites, 6)

	t.Run("Plain function", func(t *testing.T) {
		s := byName["plain"]
		require.NotNil(t, s)
		assert.Equal(t, 4, s.DeclLine)
		assert.Equal(t, 4, s.StartLine)
		assert.Equal(t, 5, s.BodyLine)
		assert.Equal(t, "    ", s.BodyIndent)
		assert.False(t, s.SameLine)
		assert.False(t, s.HasDocstring)
	})

	t.Run("Single line", func(t *testing.T) {
		s := byName["one_liner"]
		require.NotNil(t, s)
		assert.True(t, s.SameLine)
		assert.Equal(t, "", s.BodyIndent)
	})

	t.Run("Nested method", func(t *testing.T) {
		s := byName["method"]
		require.NotNil(t, s)
		assert.Equal(t, 13, s.DeclLine)
		assert.Equal(t, 14, s.BodyLine)
		assert.Equal(t, "            ", s.BodyIndent)
	})

	t.Run("Decorated", func(t *testing.T) {
		s := byName["cached"]
		require.NotNil(t, s)
		assert.Equal(t, 16, s.StartLine)
		assert.Equal(t, 18, s.DeclLine)
		assert.True(t, s.Matches(16))
		assert.True(t, s.Matches(18))
		assert.False(t, s.Matches(17))
	})

	t.Run("Docstring and tabs", func(t *testing.T) {
		assert.True(t, byName["documented"].HasDocstring)
		assert.Equal(t, "\t", byName["tabbed"].BodyIndent)
	})

	t.Run("Ordered by line", func(t *testing.T) {
		for i := 1; i < len(sites); i++ {
			assert.Less(t, sites[i-1].DeclLine, sites[i].DeclLine)
		}
	})
}

func TestLocate(t *testing.T) {
	ext, err := NewExtractor("python")
	require.NoError(t, err)
	sites, err := ext.ExtractFromSource(context.Background(), []byte("def f():\n    pass\n"))
	require.NoError(t, err)

	s, ok := Locate(sites, 1)
	require.True(t, ok)
	assert.Equal(t, "f", s.Name)
	_, ok = Locate(sites, 2)
	assert.False(t, ok)
}

func TestNewExtractor_Unsupported(t *testing.T) {
	_, err := NewExtractor("cobol")
	assert.Error(t, err)
}
