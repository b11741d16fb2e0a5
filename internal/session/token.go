package session

import (
	"fmt"
	"os"
	"strings"
)

// Token returns the bearer token for the profile. SKILLSWAP_TOKEN wins;
// otherwise the profile's token file is read. An empty result is an
// error: the SkillSwap API rejects every chat call without a JWT.
func Token(p Paths) (string, error) {
	if v := os.Getenv("SKILLSWAP_TOKEN"); v != "" {
		return v, nil
	}
	data, err := os.ReadFile(p.TokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no token: set SKILLSWAP_TOKEN or write %s", p.TokenPath)
		}
		return "", err
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("token file %s is empty", p.TokenPath)
	}
	return tok, nil
}

// SaveToken writes the token file with owner-only permissions.
func SaveToken(p Paths, token string) error {
	if err := p.Ensure(); err != nil {
		return err
	}
	return os.WriteFile(p.TokenPath, []byte(strings.TrimSpace(token)+"\n"), 0600)
}
