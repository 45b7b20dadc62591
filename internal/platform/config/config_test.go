package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lumigente")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "lumigente.sid", cfg.SessionCookieName)
	assert.Equal(t, 8*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Minute, cfg.SyncInterval)
	assert.Equal(t, " > ", cfg.HierarchyDelimiter)
	assert.Equal(t, 3, cfg.DBConnectAttempts)
	assert.Equal(t, 5, cfg.DBFallbackMaxConns)
	assert.Equal(t, 60*time.Second, cfg.DBFallbackConnectTimeout)
	assert.Equal(t, []string{"122134101", "000122134", "121411100", "000121511", "121511100"}, cfg.FullAccessDepartments)
	require.Len(t, cfg.LevelOverrides, 1)
	assert.Equal(t, 4, cfg.LevelOverrides[0].MinLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lumigente")
	t.Setenv("SYNC_INTERVAL", "5m")
	t.Setenv("SPECIAL_USERS_CPF", "111.444.777-35; 52998224725")
	t.Setenv("LEVEL_OVERRIDES", "diretoria=5;gerência de ti=4")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.Equal(t, []string{"111.444.777-35", "52998224725"}, cfg.SpecialUserCPFs)
	assert.False(t, cfg.RunMigrations)
	assert.Equal(t, []LevelOverride{{Pattern: "diretoria", MinLevel: 5}, {Pattern: "gerência de ti", MinLevel: 4}}, cfg.LevelOverrides)
}

func TestMalformedLevelOverridesFailValidation(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lumigente")
	t.Setenv("LEVEL_OVERRIDES", "gerencia de ti")

	cfg := Load()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEVEL_OVERRIDES")
}

func TestParseLevelOverridesRejectsMalformed(t *testing.T) {
	_, err := ParseLevelOverrides("gerencia")
	require.Error(t, err)

	_, err = ParseLevelOverrides("gerencia=x")
	require.Error(t, err)

	out, err := ParseLevelOverrides(" ; ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:        "postgres://localhost/lumigente",
		SessionTTL:         time.Hour,
		MaxBodyBytes:       2048,
		RateLimitPerMinute: 10,
		HierarchyDelimiter: " > ",
		DBConnectAttempts:  3,
		SyncConcurrency:    1,
	}
	require.NoError(t, base.Validate())

	missingDB := base
	missingDB.DatabaseURL = ""
	assert.Error(t, missingDB.Validate())

	weakProd := base
	weakProd.Environment = "production"
	weakProd.SessionSecret = "short"
	assert.Error(t, weakProd.Validate())

	noDelimiter := base
	noDelimiter.HierarchyDelimiter = ""
	assert.Error(t, noDelimiter.Validate())
}
