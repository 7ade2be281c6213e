package fixtures

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a fixture YAML file
// ⭐ SSOT: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates fixture YAML. Symbol keys are upper-cased.
func Parse(data []byte) (*Set, error) {
	var set Set
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	normalized := make(map[string]Payload, len(set.Symbols))
	for sym, p := range set.Symbols {
		normalized[strings.ToUpper(strings.TrimSpace(sym))] = p
	}
	set.Symbols = normalized

	if err := Validate(&set); err != nil {
		return nil, err
	}
	return &set, nil
}

// Hash is the SHA256 of the canonical JSON form; logged to identify the fixture version
func Hash(set *Set) (string, error) {
	b, err := json.Marshal(set)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
