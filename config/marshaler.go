package config

import (
	"encoding/json"

	"gopkg.in/yaml.v2"
)

func MarshalJSON(config Config) ([]byte, error) {
	return json.Marshal(config)
}

func MarshalYAML(config Config) ([]byte, error) {
	return yaml.Marshal(config)
}

func UnmarshalYAML(bz []byte, config *Config) error {
	return yaml.Unmarshal(bz, config)
}
