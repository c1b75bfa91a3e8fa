package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err, path)
		t.Run(s.Name, func(t *testing.T) {
			result := RunWithGolden(t, s)
			require.True(t, result.Pass)
		})
	}
}
