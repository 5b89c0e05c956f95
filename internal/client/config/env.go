package config

import "github.com/ilyakaznacheev/cleanenv"

// parseEnv overlays Config with GOPHAUTH_* environment variables. Unset
// variables leave the current value alone. Durations use time.ParseDuration
// syntax ("15s"). Panics on malformed values.
func parseEnv(cfg *Config) {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(err)
	}
}
