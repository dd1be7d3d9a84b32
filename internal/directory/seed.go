package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultIdentity is the demo principal available out of the box.
var DefaultIdentity = Identity{
	Email:                "user@example.com",
	Secret:               "password123",
	FingerprintReference: "fp_12345",
	HeartbeatReference:   "hb_12345",
	DNAReference:         "dna_12345",
}

type seedFile struct {
	Identities []Identity `yaml:"identities"`
}

// LoadSeed returns the identities to load. An empty path yields the default
// identity; otherwise the YAML file replaces it entirely.
func LoadSeed(path string) ([]Identity, error) {
	if path == "" {
		return []Identity{DefaultIdentity}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory seed: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(raw []byte) ([]Identity, error) {
	var doc seedFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse directory seed: %w", err)
	}
	if len(doc.Identities) == 0 {
		return nil, fmt.Errorf("directory seed contains no identities")
	}
	return doc.Identities, nil
}
