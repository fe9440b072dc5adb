package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalConfigYAML = `
num_candidates: 2
panels:
  Technical: 45
  HR: 30
order: [Technical, HR]
availabilities:
  Technical: "09:00-17:00"
  HR: "09:00-17:00"
`

func TestLoadInstance_ValidConfig(t *testing.T) {
	path := writeConfig(t, canonicalConfigYAML)

	inst, err := loadInstance(path)
	require.NoError(t, err)
	assert.Equal(t, 2, inst.NumCandidates)
	assert.Equal(t, 2, inst.NumPanels())
}

func TestLoadInstance_MissingFile(t *testing.T) {
	_, err := loadInstance(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCode(err))
}

func TestLoadInstance_UnknownPanelReference(t *testing.T) {
	path := writeConfig(t, `
num_candidates: 1
panels:
  Technical: 45
order: [Technical, Nonexistent]
availabilities:
  Technical: "09:00-17:00"
`)

	_, err := loadInstance(path)
	require.Error(t, err)
	assert.Equal(t, ExitValidationError, ExitCode(err))
}

func TestConfigHash_StableAndSensitiveToContent(t *testing.T) {
	pathA := writeConfig(t, canonicalConfigYAML)
	pathB := writeConfig(t, canonicalConfigYAML)
	pathC := writeConfig(t, canonicalConfigYAML+"\nmax_gap_minutes: 0\n")

	hashA, err := configHash(pathA)
	require.NoError(t, err)
	hashB, err := configHash(pathB)
	require.NoError(t, err)
	hashC, err := configHash(pathC)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB, "identical config contents must hash identically")
	assert.NotEqual(t, hashA, hashC, "differing config contents must hash differently")
}

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))
	return path
}
