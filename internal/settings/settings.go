// Package settings declares the user-facing settings and reads them from the
// host settings store.
package settings

import (
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	StarColorKey   = "show-github-star-star-color"
	NumberColorKey = "show-github-star-number-color"
	TokenKey       = "show-github-star-github-token"

	// DefaultColor is used for both the icon and the number when unset.
	DefaultColor = "orange"
)

// Setting describes one entry of the settings schema.
type Setting struct {
	Key         string `yaml:"key"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Default     string `yaml:"default"`
}

// Schema lists every setting, in display order.
var Schema = []Setting{
	{
		Key:         StarColorKey,
		Description: "Star's color, default is 'orange'. The format is CSS color, such as 'orange', '#FFA500', 'rgb(255,165,0)'",
		Type:        "string",
		Default:     "",
	},
	{
		Key:         NumberColorKey,
		Description: "Number's color, default is 'orange'. The format is CSS color, such as 'orange', '#FFA500', 'rgb(255,165,0)'",
		Type:        "string",
		Default:     "",
	},
	{
		Key:         TokenKey,
		Description: "Your Github Personal access token",
		Type:        "string",
		Default:     "",
	},
}

// Store is read-only access to the host settings. *viper.Viper satisfies it.
type Store interface {
	GetString(key string) string
}

// Settings is a point-in-time read of the store.
type Settings struct {
	StarColor   string
	NumberColor string
	Token       string
}

// Register declares every schema entry on v with its default value.
func Register(v *viper.Viper) {
	for _, s := range Schema {
		v.SetDefault(s.Key, s.Default)
	}
}

// MarshalSchema returns the schema as YAML.
func MarshalSchema() ([]byte, error) {
	out, err := yaml.Marshal(Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings schema: %w", err)
	}
	return out, nil
}

// Read takes the current values from store and applies the color fallbacks.
func Read(store Store) Settings {
	return Settings{
		StarColor:   orDefault(store.GetString(StarColorKey), DefaultColor),
		NumberColor: orDefault(store.GetString(NumberColorKey), DefaultColor),
		Token:       store.GetString(TokenKey),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// MapStore is a Store backed by a plain map, for embedding hosts without a
// settings backend.
type MapStore map[string]string

func (m MapStore) GetString(key string) string {
	return m[key]
}
