package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/panic-sell/equip-spells-as-shouts/internal/config"
	"github.com/panic-sell/equip-spells-as-shouts/pkg/keys"
)

func main() {
	filename := ""
	if len(os.Args) >= 2 {
		filename = os.Args[1]
	} else if cfg, err := config.Load(); err == nil {
		filename = cfg.SettingsPath
	}
	if filename == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s <settings.json>\n", os.Args[0])
		os.Exit(1)
	}

	validator := &SettingsValidator{}
	settings, err := validator.validateFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to print settings: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Settings file is valid! Effective settings:")
	fmt.Println(string(out))
}

type SettingsValidator struct {
	errors []string
}

var knownFields = []string{
	"log_level",
	"convert_spell_keysets",
	"remove_shout_keysets",
	"allow_2h_spells",
	"magicka_scale_faf",
	"magicka_scale_conc",
	"shout_layout",
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "critical", "off"}

func (v *SettingsValidator) validateFile(filename string) (config.Settings, error) {
	fmt.Printf("Validating %s...\n", filename)

	if ext := filepath.Ext(filename); ext != ".json" {
		return config.Settings{}, fmt.Errorf("settings file must have .json extension: %s", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config.Settings{}, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return v.validate(data, filename)
}

// validate checks every field strictly. The game itself is lenient and keeps
// defaults for anything it cannot use; this reports each such field.
func (v *SettingsValidator) validate(data []byte, filename string) (config.Settings, error) {
	v.errors = nil

	std, err := hujson.Standardize(data)
	if err != nil {
		return config.Settings{}, fmt.Errorf("file %s contains invalid JSON: %w", filename, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(std, &fields); err != nil {
		return config.Settings{}, fmt.Errorf("file %s must contain a JSON object: %w", filename, err)
	}

	for name := range fields {
		if !slices.Contains(knownFields, name) {
			v.addError(fmt.Sprintf("unknown field '%s'", name))
		}
	}

	if raw, ok := fields["log_level"]; ok {
		var level string
		if err := json.Unmarshal(raw, &level); err != nil {
			v.addError("log_level must be a string")
		} else if !slices.Contains(logLevels, strings.ToLower(level)) {
			v.addError(fmt.Sprintf("log_level '%s' should be one of %s", level, strings.Join(logLevels, ", ")))
		}
	}

	v.validateKeysets(fields, "convert_spell_keysets")
	v.validateKeysets(fields, "remove_shout_keysets")

	if raw, ok := fields["allow_2h_spells"]; ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			v.addError("allow_2h_spells must be true or false")
		}
	}

	v.validateScale(fields, "magicka_scale_faf")
	v.validateScale(fields, "magicka_scale_conc")

	if raw, ok := fields["shout_layout"]; ok {
		var layout string
		if err := json.Unmarshal(raw, &layout); err != nil {
			v.addError("shout_layout must be a string")
		} else {
			switch strings.ToLower(layout) {
			case config.LayoutPartitioned, config.LayoutShared:
			default:
				v.addError(fmt.Sprintf("shout_layout '%s' should be '%s' or '%s'", layout, config.LayoutPartitioned, config.LayoutShared))
			}
		}
	}

	if len(v.errors) > 0 {
		return config.Settings{}, fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	return config.ParseSettings(data)
}

func (v *SettingsValidator) validateKeysets(fields map[string]json.RawMessage, name string) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var sets [][]string
	if err := json.Unmarshal(raw, &sets); err != nil {
		v.addError(fmt.Sprintf("%s must be a list of key name lists", name))
		return
	}
	for i, set := range sets {
		if len(set) == 0 {
			v.addError(fmt.Sprintf("%s[%d] is empty", name, i))
			continue
		}
		if len(set) > keys.KeysetSize {
			v.addError(fmt.Sprintf("%s[%d] has %d keys, at most %d are used", name, i, len(set), keys.KeysetSize))
		}
		for _, key := range set {
			if _, err := keys.KeycodeFromName(key); err != nil {
				v.addError(fmt.Sprintf("%s[%d] has unknown key '%s'", name, i, key))
			}
		}
	}
}

func (v *SettingsValidator) validateScale(fields map[string]json.RawMessage, name string) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		v.addError(fmt.Sprintf("%s must be a number", name))
		return
	}
	if f < 0 {
		v.addError(fmt.Sprintf("%s must not be negative", name))
	}
}

func (v *SettingsValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}
