package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

var errNoEnvFile = errors.New("no .env file found")

// LoadEnv loads .env and .env.local from dir without overriding variables
// already present in the process environment.
func LoadEnv(dir string) error {
	var found []string
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return errNoEnvFile
	}
	return godotenv.Load(found...)
}
