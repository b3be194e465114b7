package config

const (
	EnvPrefix = "QUICKDEALS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv        = "QUICKDEALS_APP_ENV"
	EnvPort          = "QUICKDEALS_APP_PORT"
	EnvDatabases     = "QUICKDEALS_DATABASES"
	EnvSeedPlatforms = "QUICKDEALS_SEED_PLATFORMS"
	EnvSeedProducts  = "QUICKDEALS_SEED_PRODUCTS"
	EnvSeedPriceMin  = "QUICKDEALS_SEED_PRICE_MIN"
	EnvSeedPriceMax  = "QUICKDEALS_SEED_PRICE_MAX"
	EnvSeedDiscounts = "QUICKDEALS_SEED_DISCOUNTS"
	EnvLLMProvider   = "QUICKDEALS_LLM_PROVIDER"
	EnvLLMModel      = "QUICKDEALS_LLM_MODEL"
	EnvLLMAPIKey     = "QUICKDEALS_LLM_API_KEY"
	EnvRedisURL      = "QUICKDEALS_REDIS_URL"

	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

type providerDefault struct {
	model   string
	keyEnvs []string
}

var providerDefaults = map[string]providerDefault{
	ProviderGemini:    {model: "gemini-1.5-flash", keyEnvs: []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}},
	ProviderOpenAI:    {model: "gpt-4o-mini", keyEnvs: []string{"OPENAI_API_KEY"}},
	ProviderAnthropic: {model: "claude-3-5-haiku-latest", keyEnvs: []string{"ANTHROPIC_API_KEY"}},
}
