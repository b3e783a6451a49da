package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix is prepended to every variable name, e.g. GOPHVAULT_HTTP_ADDR.
const EnvPrefix = "GOPHVAULT"

// parseEnv overlays variables that are present in the environment. Fields
// whose variable is unset keep the value of the previous layers.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
