package config

import (
	"os"
	"regexp"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with environment variable values
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match // Keep original if env var not set
	})
}

// expandConfigEnvVars expands environment variables in config string fields.
// A token that still references an unset variable is cleared so the GitHub
// client falls back to GH_TOKEN / gh auth, and failing that searches
// unauthenticated.
func expandConfigEnvVars(cfg *Config) {
	cfg.GitHub.Token = expandEnvVars(cfg.GitHub.Token)
	if envVarPattern.MatchString(cfg.GitHub.Token) {
		cfg.GitHub.Token = ""
	}
	cfg.GitHub.APIURL = expandEnvVars(cfg.GitHub.APIURL)
	cfg.State.Path = expandEnvVars(cfg.State.Path)
	cfg.Log.File = expandEnvVars(cfg.Log.File)
}
