package screenconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Resolve returns the profile for a built-in name or a YAML file path. Empty means no profile.
func Resolve(nameOrPath string) (*Profile, error) {
	if nameOrPath == "" {
		return nil, nil
	}
	if p, ok := builtin[nameOrPath]; ok {
		return p, nil
	}
	return Load(nameOrPath)
}

// Load reads a YAML profile.
// KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML profile
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Hash identifies a profile's effective content (canonical JSON, SHA256).
// 실행 로그에 남겨 어떤 설정으로 돌렸는지 추적
func Hash(p *Profile) (string, error) {
	if p == nil {
		return "", nil
	}
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
