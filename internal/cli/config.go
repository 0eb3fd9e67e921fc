package cli

import "os"

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	Output    string
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("GATEWARD_SERVER", "http://localhost:8090"),
		Token:     os.Getenv("GATEWARD_TOKEN"),
		Output:    "text",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
