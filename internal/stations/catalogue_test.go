package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/passbi/journeyplanner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogue(t *testing.T) {
	cat := Default()
	assert.Greater(t, cat.Len(), 50)

	s, ok := cat.Get("LVJ")
	require.True(t, ok)
	assert.Equal(t, "Liverpool James Street", s.Name)

	codes := cat.Codes()
	assert.Equal(t, cat.Len(), len(codes))
	assert.Equal(t, models.StationCode("ABD"), codes[0])
}

func TestLookup(t *testing.T) {
	cat := Default()

	tests := []struct {
		name    string
		raw     string
		want    models.StationCode
		wantErr bool
	}{
		{"Upper case", "EUS", "EUS", false},
		{"Lower case is normalised", "man", "MAN", false},
		{"Whitespace is trimmed", " ldy ", "LDY", false},
		{"Unknown code", "ZZZ", "", true},
		{"Empty code", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := cat.Lookup(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownStation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestParseCodes(t *testing.T) {
	cat := Default()

	codes, err := cat.ParseCodes([]string{"lvj", "LDY", "Edb"})
	require.NoError(t, err)
	assert.Equal(t, []models.StationCode{"LVJ", "LDY", "EDB"}, codes)

	_, err = cat.ParseCodes([]string{"LVJ", "XXX"})
	assert.ErrorIs(t, err, ErrUnknownStation)
}

func TestParseRejectsInvalidCatalogues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"Empty", "stations: []"},
		{"Code too long", "stations:\n  - {code: ABCD, name: Test}"},
		{"Lower case code", "stations:\n  - {code: abc, name: Test}"},
		{"Missing name", "stations:\n  - {code: ABC}"},
		{"Duplicate code", "stations:\n  - {code: ABC, name: A}\n  - {code: ABC, name: B}"},
		{"Not yaml", "stations: [[["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stations.yaml")
	require.NoError(t, os.WriteFile(path, []byte("stations:\n  - {code: AAA, name: Alpha}\n  - {code: BBB, name: Beta}\n"), 0644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
