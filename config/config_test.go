package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donjoker0605/focep-collect-backend-sub002/config"
	"github.com/donjoker0605/focep-collect-backend-sub002/generic"
)

func TestLoad_Defaults(t *testing.T) {
	// GIVEN: No config file and no overrides
	// WHEN: Loading
	// THEN: Institution defaults apply

	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.IsProduction())

	rules, err := cfg.CommissionRules()
	require.NoError(t, err)
	assert.Equal(t, "0.1925", rules.VTARate().String())
	assert.Equal(t, "0.7", rules.CollecteurRate().String())
	assert.True(t, rules.NouveauCollecteurMontant().Equal(generic.FCFA(40000)))
	assert.Equal(t, 3, rules.NouveauCollecteurDureeMois())
	assert.False(t, rules.HasPlafond())
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Hour, cfg.Scheduler.Interval)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	// GIVEN: A YAML file setting the port and EMF rate, and an env override
	// WHEN: Loading
	// THEN: The environment wins over the file

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  environment: production
database:
  path: /tmp/collect.db
commission:
  emf_rate: "0.25"
  plafond_commission_fixe: "3000"
`), 0o600))
	t.Setenv("COLLECT_SERVER_PORT", "7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/tmp/collect.db", cfg.Database.Path)

	rules, err := cfg.CommissionRules()
	require.NoError(t, err)
	assert.Equal(t, "0.75", rules.CollecteurRate().String())
	assert.True(t, rules.HasPlafond())
}

func TestLoad_InvalidRate(t *testing.T) {
	t.Setenv("COLLECT_COMMISSION_VTA_RATE", "dix-neuf")

	_, err := config.Load("")

	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestValidate_PortAndFileLogging(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Server.Port = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Scheduler.Enabled = true
	bad.Scheduler.Interval = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Logging.File.Enabled = true
	bad.Logging.File.Path = ""
	assert.Error(t, bad.Validate())
}
