package scoring

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hf-risk-server/internal/domain"
)

// LoadConfig reads a YAML model file. An empty path returns DefaultConfig.
// Sections missing from the file are taken from the defaults; the default soft
// ranges only apply when the parameter table is also the default one. The merged
// model is validated before it is returned.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scoring model: %w", err)
	}
	defer f.Close()

	return DecodeConfig(f)
}

// DecodeConfig parses a YAML model document
func DecodeConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, domain.NewConfigurationError("model file", "parsing YAML: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.Version == "" {
		cfg.Version = "custom"
	}
	if len(cfg.Parameters) == 0 {
		cfg.Parameters = defaults.Parameters
		if cfg.SoftRanges == nil {
			cfg.SoftRanges = defaults.SoftRanges
		}
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = defaults.Bands
	}
	if len(cfg.BaseRecommendations) == 0 {
		cfg.BaseRecommendations = defaults.BaseRecommendations
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EncodeConfig writes the model as YAML
func EncodeConfig(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding scoring model: %w", err)
	}
	return enc.Close()
}
