package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Provider is a single source for a configuration value. It reports the
// value and whether this source had it; resolution stops at the first hit.
type Provider struct {
	Name   string
	Lookup func() (string, bool)
}

// StaticProvider returns a provider backed by an already-known value,
// typically a CLI flag. An empty value counts as not found.
func StaticProvider(name, value string) Provider {
	return Provider{Name: name, Lookup: func() (string, bool) {
		v := strings.TrimSpace(value)
		return v, v != ""
	}}
}

// EnvProvider reads a variable from the process environment.
func EnvProvider(key string) Provider {
	return Provider{Name: "env:" + key, Lookup: func() (string, bool) {
		v := strings.TrimSpace(os.Getenv(key))
		return v, v != ""
	}}
}

// DotenvProvider reads a key out of a .env file without mutating the
// process environment.
func DotenvProvider(path, key string) Provider {
	return Provider{Name: "dotenv:" + path, Lookup: func() (string, bool) {
		values, err := godotenv.Read(path)
		if err != nil {
			return "", false
		}
		v := strings.TrimSpace(values[key])
		return v, v != ""
	}}
}

// Resolve walks the providers in order and returns the first value found,
// along with the name of the winning provider.
func Resolve(providers ...Provider) (value, source string, found bool) {
	for _, p := range providers {
		if v, ok := p.Lookup(); ok {
			return v, p.Name, true
		}
	}
	return "", "", false
}

// DatabaseURLProviders is the canonical lookup order for the database URL:
// an explicit flag value, then DATABASE_URL from the environment, then a
// local .env file.
func DatabaseURLProviders(flagValue string) []Provider {
	return []Provider{
		StaticProvider("flag", flagValue),
		EnvProvider("DATABASE_URL"),
		DotenvProvider(".env", "DATABASE_URL"),
	}
}
