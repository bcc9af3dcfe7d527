package config

import (
	"errors"
	"io/fs"
	"os"

	perr "gscsync/internal/platform/errors"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read from the working directory when no path is given
const DefaultEnvFile = ".env"

// LoadDotEnv loads KEY=VALUE files into the process env.
// Variables already set in the environment win. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{DefaultEnvFile}
	}
	var present []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return perr.Configf(p, "env file %s: %v", p, err)
		}
		present = append(present, p)
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return perr.Configf(present[0], "parse env file: %v", err)
	}
	return nil
}
