package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	MainKeys []mainKeySchema `toml:"mainkeys"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported mainkeys schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type mainKeySchema struct {
	APIKey string `toml:"api_key"`
	Pool   bool   `toml:"pool"`
}
