package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry full names.
	EnvPrefix = "prairiemarket"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	USPSEnvProduction = "production"
	USPSEnvTesting    = "testing"

	EnvAppEnv = "PRAIRIEMARKET_APP_ENV"
)
