package cmd

import (
	"os"
	"path/filepath"

	"github.com/pterodactyl/sandboxfs/config"
)

// configurationCandidates returns the locations a configuration file is
// looked for when --config is not passed, in order of preference.
func configurationCandidates() []string {
	check := []string{config.DefaultLocation}
	if d, err := os.UserConfigDir(); err == nil {
		check = append(check, filepath.Join(d, "sandboxfs", "config.yml"))
	}
	return append(check, "config.yml")
}

// findConfiguration returns the first configuration file that exists. A
// generic not exist error is returned when there is none so the caller can
// fall back to the default values.
func findConfiguration() (string, error) {
	for _, p := range configurationCandidates() {
		if s, err := os.Stat(p); err != nil {
			if !os.IsNotExist(err) {
				return "", err
			}
		} else if !s.IsDir() {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}
