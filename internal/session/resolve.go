package session

import (
	"os"
	"strings"
)

// DefaultProfile is used when nothing else names one.
const DefaultProfile = "default"

// Resolve picks the profile name. Precedence: explicit flag value,
// then SKILLSWAP_PROFILE, then the configured default, then "default".
func Resolve(flagValue, configured string) (string, error) {
	name := flagValue
	if name == "" {
		name = os.Getenv("SKILLSWAP_PROFILE")
	}
	if name == "" {
		name = configured
	}
	if name == "" {
		name = DefaultProfile
	}
	name = strings.TrimSpace(name)
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
