package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/panic-sell/equip-spells-as-shouts/pkg/keys"
)

// Settings is the user-editable settings document.
type Settings struct {
	LogLevel            string       `json:"log_level"`
	ConvertSpellKeysets keys.Keysets `json:"convert_spell_keysets"`
	RemoveShoutKeysets  keys.Keysets `json:"remove_shout_keysets"`
	Allow2HSpells       bool         `json:"allow_2h_spells"`
	MagickaScaleFaf     float64      `json:"magicka_scale_faf"`
	MagickaScaleConc    float64      `json:"magicka_scale_conc"`
	ShoutLayout         string       `json:"shout_layout"`
}

const (
	LayoutPartitioned = "partitioned"
	LayoutShared      = "shared"
)

// DefaultSettings returns the settings used when the document is missing or
// malformed.
func DefaultSettings() Settings {
	lshift := keys.MustKeycode("LShift")
	rshift := keys.MustKeycode("RShift")
	return Settings{
		LogLevel: "info",
		ConvertSpellKeysets: keys.NewKeysets(
			keys.Keyset{lshift, keys.MustKeycode("=")},
			keys.Keyset{rshift, keys.MustKeycode("=")},
		),
		RemoveShoutKeysets: keys.NewKeysets(
			keys.Keyset{lshift, keys.MustKeycode("-")},
			keys.Keyset{rshift, keys.MustKeycode("-")},
		),
		Allow2HSpells:    false,
		MagickaScaleFaf:  1,
		MagickaScaleConc: 1,
		ShoutLayout:      LayoutPartitioned,
	}
}

// ParseSettings decodes a settings document. Comments and trailing commas
// are allowed. Fields that are missing or fail to decode keep their default;
// a document that is not a JSON object is an error.
func ParseSettings(data []byte) (Settings, error) {
	settings := DefaultSettings()

	std, err := hujson.Standardize(data)
	if err != nil {
		return settings, fmt.Errorf("failed to parse settings: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(std, &fields); err != nil {
		return settings, fmt.Errorf("settings must be a JSON object: %w", err)
	}

	decodeField(fields, "log_level", &settings.LogLevel)
	decodeField(fields, "convert_spell_keysets", &settings.ConvertSpellKeysets)
	decodeField(fields, "remove_shout_keysets", &settings.RemoveShoutKeysets)
	decodeField(fields, "allow_2h_spells", &settings.Allow2HSpells)
	decodeField(fields, "magicka_scale_faf", &settings.MagickaScaleFaf)
	decodeField(fields, "magicka_scale_conc", &settings.MagickaScaleConc)

	var layout string
	if decodeField(fields, "shout_layout", &layout) {
		switch l := strings.ToLower(layout); l {
		case LayoutPartitioned, LayoutShared:
			settings.ShoutLayout = l
		}
	}

	return settings, nil
}

// decodeField overwrites dst only when the field exists and decodes cleanly.
func decodeField[T any](fields map[string]json.RawMessage, name string, dst *T) bool {
	raw, ok := fields[name]
	if !ok {
		return false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// LoadSettings reads the settings document at path. Any failure falls back
// to DefaultSettings with a warning.
func LoadSettings(path string, logger *slog.Logger) Settings {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("Settings file not found, using default settings", "path", path)
		} else {
			logger.Warn("Failed to read settings file, using default settings", "path", path, "error", err)
		}
		return DefaultSettings()
	}

	settings, err := ParseSettings(data)
	if err != nil {
		logger.Warn("Settings cannot be parsed, using default settings", "path", path, "error", err)
		return DefaultSettings()
	}
	return settings
}
