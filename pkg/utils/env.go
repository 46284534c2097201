package utils

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads variables from a .env file when one is present.
// A missing file is fine; configuration may come from the environment directly.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt retrieves an environment variable as an integer, falling back when
// the variable is unset or not a valid integer.
func GetenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
