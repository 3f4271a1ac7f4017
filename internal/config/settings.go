package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Settings are the values taken from the environment (and flags bound to
// the same viper instance).
type Settings struct {
	APIKey          string
	StateFolder     string
	WebhookURL      string
	SlackWebhookURL string
}

// Viper keys and the environment variables each one is read from. The
// BACKLOGGER_ form always works; the bare names are kept for existing
// deployments.
var envBindings = map[string][]string{
	"api_key":           {"BACKLOGGER_API_KEY", "REDMINE_API_KEY"},
	"state_folder":      {"BACKLOGGER_STATE_FOLDER", "STATE_FOLDER"},
	"webhook_url":       {"BACKLOGGER_WEBHOOK_URL", "WEBHOOK_URL"},
	"slack_webhook_url": {"BACKLOGGER_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"},
}

// NewViper returns a viper instance with the environment bound.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("BACKLOGGER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for key, envs := range envBindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	return v
}

// SettingsFrom reads the settings out of v.
func SettingsFrom(v *viper.Viper) Settings {
	return Settings{
		APIKey:          v.GetString("api_key"),
		StateFolder:     v.GetString("state_folder"),
		WebhookURL:      v.GetString("webhook_url"),
		SlackWebhookURL: v.GetString("slack_webhook_url"),
	}
}

// RequireAPIKey returns ErrMissingAPIKey when no credential is configured.
func (s Settings) RequireAPIKey() error {
	if s.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
