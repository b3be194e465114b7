package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "8501", cfg.App.Port)
	assert.Equal(t, []string{"zepto", "blinkit", "instamart"}, cfg.Databases.Specs.Names())
	assert.Equal(t, "instasmart.db", cfg.Databases.Specs[2].Path)
	assert.Equal(t, []string{"Zepto"}, cfg.Databases.Specs[0].Platforms)

	assert.Equal(t, []string{"Blinkit", "Zepto", "Instamart", "BigBasket Now"}, cfg.Seed.Platforms)
	assert.Equal(t, []string{"Onion", "Tomato", "Apple", "Milk"}, cfg.Seed.Products)
	assert.Equal(t, []int{0, 10, 20, 30}, cfg.Seed.Discounts)
	assert.Equal(t, 10.0, cfg.Seed.PriceMin)
	assert.Equal(t, 100.0, cfg.Seed.PriceMax)
	assert.True(t, cfg.Seed.Enabled)

	assert.Equal(t, ProviderGemini, cfg.LLM.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.LLM.Model)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, time.Duration(0), cfg.LLM.Timeout)
	assert.Equal(t, 15, cfg.Agent.MaxTurns)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 10*time.Minute, cfg.Redis.SessionLockTTL)
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	setMinimalEnv(t)
	unsetEnv(t, EnvLLMAPIKey)
	t.Setenv(EnvLLMProvider, "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "sk-fallback", cfg.LLM.APIKey)
}

func TestLoad_MissingAPIKey(t *testing.T) {
	setMinimalEnv(t)
	unsetEnv(t, EnvLLMAPIKey)
	unsetEnv(t, "GOOGLE_API_KEY")
	unsetEnv(t, "GEMINI_API_KEY")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvLLMAPIKey)
}

func TestLoad_UnknownProvider(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvLLMProvider, "palm")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_SingleFileDatabase(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDatabases, "quickcommerce=database.db")

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Databases.Specs, 1)
	assert.Equal(t, "database.db", cfg.Databases.Specs[0].Path)
	assert.Empty(t, cfg.Databases.Specs[0].Platforms)
}

func TestLoad_DatabaseUnknownPlatform(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvDatabases, "dunzo=dunzo.db:Dunzo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dunzo")
}

func TestLoad_InvalidPriceRange(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvSeedPriceMin, "50")
	t.Setenv(EnvSeedPriceMax, "20")

	_, err := Load()
	require.Error(t, err)
}

func TestParseDatabaseSpecs(t *testing.T) {
	specs, err := ParseDatabaseSpecs(" zepto = data/zepto.db : Zepto ; combo=combo.db:Blinkit|BigBasket Now ;")
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, DatabaseSpec{Name: "zepto", Path: "data/zepto.db", Platforms: []string{"Zepto"}}, specs[0])
	assert.Equal(t, []string{"Blinkit", "BigBasket Now"}, specs[1].Platforms)
}

func TestParseDatabaseSpecs_Errors(t *testing.T) {
	cases := map[string]string{
		"empty":        " ; ",
		"missing path": "zepto=",
		"no equals":    "zepto.db",
		"bad name":     "Zepto DB=zepto.db",
		"duplicate":    "a=a.db;a=b.db",
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDatabaseSpecs(value)
			assert.Error(t, err)
		})
	}
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvLLMAPIKey, "test-key")
	for _, key := range []string{
		EnvAppEnv,
		EnvPort,
		EnvLLMProvider,
		EnvLLMModel,
		EnvDatabases,
		EnvSeedPlatforms,
		EnvSeedProducts,
		EnvSeedPriceMin,
		EnvSeedPriceMax,
		EnvSeedDiscounts,
		EnvRedisURL,
	} {
		unsetEnv(t, key)
	}
}

// unsetEnv removes key for the duration of the test; envconfig treats an
// empty-but-set variable as an explicit value and skips the default.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}
