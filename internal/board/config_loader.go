package board

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cortexsim/armboard/internal/simerr"
)

// knownTopLevelKeys lists Config's top-level keys for strict top-level
// key validation: yaml.Node decoding lets us detect unknown top-level
// keys (keys nested inside a section are not checked), which the
// original Python loader silently ignored. This is a deliberate
// tightening, recorded as a decision rather than left as an ambiguity
// (see SPEC_FULL.md §9).
var knownTopLevelKeys = map[string]bool{
	"memory": true, "gpio": true, "sysctl": true, "pins": true, "nvic": true,
}

// LoadConfig decodes a board configuration file from path. name is
// stamped onto the resulting Config for logging/registry use.
func LoadConfig(name, path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, simerr.Wrap(simerr.KindConfiguration, err, "failed to read config %s", path)
	}
	return decodeConfig(name, raw)
}

// LoadConfigBytes decodes an already-in-memory configuration document,
// used for a board's bundled go:embed default when no --config
// override path is given.
func LoadConfigBytes(name string, raw []byte) (Config, error) {
	return decodeConfig(name, raw)
}

func decodeConfig(name string, raw []byte) (Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, simerr.Wrap(simerr.KindConfiguration, err, "failed to parse config for board %s", name)
	}
	if err := validateTopLevelKeys(&doc); err != nil {
		return Config{}, err
	}

	if err := validateGPIODataOffsetPresent(&doc); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, simerr.Wrap(simerr.KindConfiguration, err, "failed to decode config for board %s", name)
	}
	cfg.Name = name

	if err := validateRequired(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateTopLevelKeys(doc *yaml.Node) error {
	if len(doc.Content) == 0 {
		return simerr.New(simerr.KindConfiguration, "config file is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return simerr.New(simerr.KindConfiguration, "config file root must be a mapping")
	}
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if !knownTopLevelKeys[key] {
			return simerr.New(simerr.KindConfiguration, "unknown config key %q", key)
		}
	}
	return nil
}

// mappingChild returns the value node for key within a YAML mapping
// node, or nil if the mapping has no such key.
func mappingChild(mapping *yaml.Node, key string) *yaml.Node {
	if mapping == nil || mapping.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

// validateGPIODataOffsetPresent enforces scenario S7: a config missing
// gpio.offsets.data is a Configuration error naming that key, rather
// than silently defaulting the offset to zero (which, for the TM4C
// masked-DATA window, is indistinguishable from a deliberately
// configured zero offset at the Config-struct level).
func validateGPIODataOffsetPresent(doc *yaml.Node) error {
	root := doc.Content[0]
	gpio := mappingChild(root, "gpio")
	if gpio == nil {
		return simerr.New(simerr.KindConfiguration, "gpio is required")
	}
	offsets := mappingChild(gpio, "offsets")
	if offsets == nil || mappingChild(offsets, "data") == nil {
		return simerr.New(simerr.KindConfiguration, "gpio.offsets.data is required")
	}
	return nil
}

func validateRequired(cfg Config) error {
	if cfg.Memory.FlashSize == 0 {
		return simerr.New(simerr.KindConfiguration, "memory.flash_size is required")
	}
	if cfg.Memory.SRAMSize == 0 {
		return simerr.New(simerr.KindConfiguration, "memory.sram_size is required")
	}
	if len(cfg.GPIO.Ports) == 0 {
		return simerr.New(simerr.KindConfiguration, "gpio.ports must name at least one port")
	}
	return nil
}
