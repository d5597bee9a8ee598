package config

import (
	"os"
	"path/filepath"
	"testing"
)

const minimalYAML = `environment: test
odds_api:
  api_key: ""
  bookmaker: betway
  leagues:
    - sport_key: soccer_epl
      markets: [h2h]
clickhouse:
  host: localhost
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	if _, err := Load(writeConfig(t, minimalYAML)); err == nil {
		t.Fatalf("empty api_key must fail validation")
	}
}

func TestLoadWithEnvOverridesBeforeValidation(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "k-from-env")
	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.OddsAPI.APIKey != "k-from-env" {
		t.Fatalf("api_key = %q", c.OddsAPI.APIKey)
	}
	if c.OddsAPI.RequestsPerSec != 2 || c.Pipeline.HardFailRatio != 0.5 {
		t.Fatalf("defaults not applied: rps=%v ratio=%v",
			c.OddsAPI.RequestsPerSec, c.Pipeline.HardFailRatio)
	}
}
