// Package keystore is a YAML-backed implementation of the
// accessKeyId -> secretKey lookup the signer package consumes through
// signer.KeyLookup. The signer package keeps no access-key-to-secret
// bindings of its own; a Verifier obtains each secret through KeyLookup.
package keystore

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type File struct {
	Credentials []Credential `yaml:"credentials"`
}

type Credential struct {
	Name        string `yaml:"name"`
	AccessKeyID string `yaml:"access_key_id"`
	SecretKey   string `yaml:"secret_key"`
}

// Store resolves access key ids to secrets, loaded once from a YAML file.
type Store struct {
	byAccessKeyID map[string]Credential
}

// LoadFile reads and validates a credentials file.
func LoadFile(path string) (*Store, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file %q: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parse credentials file %q: %w", path, err)
	}
	if err := validate(file); err != nil {
		return nil, err
	}

	byID := make(map[string]Credential, len(file.Credentials))
	for _, c := range file.Credentials {
		byID[c.AccessKeyID] = c
	}
	return &Store{byAccessKeyID: byID}, nil
}

func validate(file File) error {
	var errs []error
	if len(file.Credentials) == 0 {
		errs = append(errs, errors.New("credentials validation: at least one credential is required"))
	}

	seen := make(map[string]struct{}, len(file.Credentials))
	for idx, c := range file.Credentials {
		prefix := fmt.Sprintf("credentials validation: credentials[%d]", idx)
		if c.AccessKeyID == "" {
			errs = append(errs, fmt.Errorf("%s.access_key_id is required", prefix))
		} else {
			if _, exists := seen[c.AccessKeyID]; exists {
				errs = append(errs, fmt.Errorf("%s.access_key_id %q is duplicated", prefix, c.AccessKeyID))
			}
			seen[c.AccessKeyID] = struct{}{}
		}
		if c.SecretKey == "" {
			errs = append(errs, fmt.Errorf("%s.secret_key is required", prefix))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Lookup implements signer.KeyLookup.
func (s *Store) Lookup(accessKeyID string) (string, bool) {
	c, ok := s.byAccessKeyID[accessKeyID]
	if !ok {
		return "", false
	}
	return c.SecretKey, true
}

// NameOf returns the human-readable name bound to accessKeyID, or "" when
// the id is unknown.
func (s *Store) NameOf(accessKeyID string) string {
	return s.byAccessKeyID[accessKeyID].Name
}
