package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/pizzeria-traffic/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadTargets_YAML(t *testing.T) {
	path := writeFile(t, "targets.yaml", `
targets:
  - name: Pizzeria Paradiso
    url: https://www.google.com/maps/search/?api=1&query=Pizzeria+Paradiso
  - name: Andy's
    url: https://www.google.com/maps/search/?api=1&query=Andy%27s+Pizza
`)

	reg, err := LoadTargets(path)
	require.NoError(t, err)

	assert.Equal(t, []domain.Target{
		{Name: "Pizzeria Paradiso", URL: "https://www.google.com/maps/search/?api=1&query=Pizzeria+Paradiso"},
		{Name: "Andy's", URL: "https://www.google.com/maps/search/?api=1&query=Andy%27s+Pizza"},
	}, reg.Targets())
}

func TestLoadTargets_JSON(t *testing.T) {
	path := writeFile(t, "targets.json", `{"targets":[{"name":"Paradiso","url":"https://maps.example.com/p"}]}`)

	reg, err := LoadTargets(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, "Paradiso", reg.Targets()[0].Name)
}

func TestLoadTargets_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		errPart string
	}{
		{"missing targets key", "t.yaml", "other: 1\n", "no targets"},
		{"duplicate names", "t.yaml", "targets:\n  - {name: A, url: 'https://a.example'}\n  - {name: A, url: 'https://b.example'}\n", "duplicate"},
		{"bad url", "t.yaml", "targets:\n  - {name: A, url: 'maps/place'}\n", "http or https"},
		{"malformed yaml", "t.yaml", "targets: [\n", "read targets file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTargets(writeFile(t, tt.file, tt.content))
			require.Error(t, err)
			require.ErrorIs(t, err, domain.ErrConfig)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestLoadTargets_MissingFile(t *testing.T) {
	_, err := LoadTargets(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfig)
}
