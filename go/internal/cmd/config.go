package main

import (
	"os"
	"strconv"

	"github.com/mcdev12/quizbuzz/go/internal/game"
	"github.com/rs/zerolog/log"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadGameRules reads the YAML rules file named by RULES_FILE, falling back
// to the defaults when none is configured.
func loadGameRules() game.Rules {
	path := os.Getenv("RULES_FILE")
	if path == "" {
		return game.DefaultRules()
	}
	rules, err := game.LoadRules(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to load game rules")
	}
	log.Info().Str("path", path).Msg("game rules loaded")
	return rules
}
