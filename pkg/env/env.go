package env

import (
	"os"
	"strings"
)

// Prefix namespaces every variable the services read.
const Prefix = "STOREPULSE_"

// Get returns the value of Prefix+key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(Prefix + key)); val != "" {
		return val
	}
	return fallback
}
