// Package stations holds the closed set of station codes a journey may use.
package stations

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/passbi/journeyplanner/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed stations.yaml
var defaultCatalogue []byte

// ErrUnknownStation is returned for codes outside the catalogue
var ErrUnknownStation = errors.New("unknown station code")

// Station is a single catalogue entry
type Station struct {
	Code models.StationCode `yaml:"code" json:"code" validate:"required,len=3,alpha,uppercase"`
	Name string             `yaml:"name" json:"name" validate:"required"`
}

type catalogueFile struct {
	Stations []Station `yaml:"stations" validate:"required,min=1,dive"`
}

// Catalogue is an immutable lookup table of known stations
type Catalogue struct {
	byCode map[models.StationCode]Station
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
)

// Default returns the catalogue bundled with the binary
func Default() *Catalogue {
	defaultOnce.Do(func() {
		c, err := Parse(defaultCatalogue)
		if err != nil {
			panic(fmt.Sprintf("stations: bundled catalogue is invalid: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// LoadFile reads a catalogue from a YAML file
func LoadFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read station catalogue: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogue
func Parse(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode station catalogue: %w", err)
	}

	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid station catalogue: %w", err)
	}

	byCode := make(map[models.StationCode]Station, len(file.Stations))
	for _, s := range file.Stations {
		if _, dup := byCode[s.Code]; dup {
			return nil, fmt.Errorf("invalid station catalogue: duplicate code %s", s.Code)
		}
		byCode[s.Code] = s
	}

	return &Catalogue{byCode: byCode}, nil
}

// Lookup normalises a raw code and checks it against the catalogue
func (c *Catalogue) Lookup(raw string) (models.StationCode, error) {
	code := models.StationCode(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := c.byCode[code]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStation, raw)
	}
	return code, nil
}

// ParseCodes converts raw codes in order, failing on the first unknown one
func (c *Catalogue) ParseCodes(raw []string) ([]models.StationCode, error) {
	codes := make([]models.StationCode, 0, len(raw))
	for _, r := range raw {
		code, err := c.Lookup(r)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// Get returns the catalogue entry for a code
func (c *Catalogue) Get(code models.StationCode) (Station, bool) {
	s, ok := c.byCode[code]
	return s, ok
}

// Len returns the number of stations
func (c *Catalogue) Len() int {
	return len(c.byCode)
}

// Codes returns all codes in sorted order
func (c *Catalogue) Codes() []models.StationCode {
	codes := make([]models.StationCode, 0, len(c.byCode))
	for code := range c.byCode {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
