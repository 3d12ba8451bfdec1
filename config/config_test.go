package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hours-engine/generic"
	"github.com/warp/hours-engine/hours"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// GIVEN: no file on the search path and no environment
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "hours.db", cfg.DB.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "informational", cfg.Engine.ExtraDutyPolicy)
	assert.True(t, cfg.Engine.Thresholds().High.Equal(decimal.NewFromInt(95)))
	assert.True(t, cfg.Engine.Thresholds().Acceptable.Equal(decimal.NewFromInt(85)))
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := writeFile(t, "hours.yaml", `
server:
  port: 9000
db:
  path: /tmp/test.db
engine:
  extra_duty_policy: additive
  tiers:
    high: 90
    acceptable: 80
`)

	// GIVEN: the environment overrides the file
	t.Setenv("HOURS_SERVER_PORT", "9100")
	t.Setenv("HOURS_LOG_FORMAT", "console")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.DB.Path)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "additive", cfg.Engine.ExtraDutyPolicy)
	assert.True(t, cfg.Engine.Thresholds().High.Equal(decimal.NewFromInt(90)))
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"HOURS_SERVER_PORT": "0"}},
		{"unknown log format", map[string]string{"HOURS_LOG_FORMAT": "xml"}},
		{"unknown extra duty policy", map[string]string{"HOURS_ENGINE_EXTRA_DUTY_POLICY": "double"}},
		{"negative efficiency", map[string]string{"HOURS_ENGINE_DEFAULT_EFFICIENCY": "-1"}},
		{"zero efficiency", map[string]string{"HOURS_ENGINE_DEFAULT_EFFICIENCY": "0"}},
		{"zero tiers", map[string]string{"HOURS_ENGINE_TIERS_HIGH": "0", "HOURS_ENGINE_TIERS_ACCEPTABLE": "0"}},
		{"inverted tiers", map[string]string{"HOURS_ENGINE_TIERS_HIGH": "80", "HOURS_ENGINE_TIERS_ACCEPTABLE": "90"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestServiceOptions(t *testing.T) {
	cfg := Config{Engine: EngineConfig{
		ExtraDutyPolicy:    "additive",
		DefaultEfficiency:  90,
		Tiers:              TiersConfig{High: 97.5, Acceptable: 80},
		SkipInvalidMembers: true,
	}}

	opts := cfg.ServiceOptions(nil)

	assert.Equal(t, hours.ExtraDutyAdditive, opts.ExtraDuty)
	assert.True(t, opts.DefaultEfficiency.Equal(decimal.NewFromInt(90)))
	assert.True(t, opts.Tiers.High.Equal(decimal.NewFromFloat(97.5)))
	assert.True(t, opts.SkipInvalidMembers)
}

func TestThresholds_ValidateIsConfigurationError(t *testing.T) {
	e := EngineConfig{Tiers: TiersConfig{High: 50, Acceptable: 60}}
	assert.ErrorIs(t, e.Thresholds().Validate(), generic.ErrConfiguration)
}
