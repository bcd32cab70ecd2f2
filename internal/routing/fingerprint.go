package routing

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/passbi/journeyplanner/internal/models"
)

// Fingerprint returns the hex SHA-256 digest of the comma-joined station codes.
// Identical ordered sequences always produce identical fingerprints.
func Fingerprint(path []models.StationCode) string {
	codes := make([]string, len(path))
	for i, c := range path {
		codes[i] = c.String()
	}
	hash := sha256.Sum256([]byte(strings.Join(codes, ",")))
	return hex.EncodeToString(hash[:])
}
