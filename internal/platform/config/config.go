// Package config reads application configuration from environment variables
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/logger"
)

// Conf is a namespaced view over environment variables (e.g. "NOTION_", "SYNC_")
type Conf struct{ prefix string }

// New creates a root Conf (no prefix)
func New() Conf { return Conf{} }

// Prefix creates a child Conf with an additional prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

// Key returns the fully qualified env var name for k
func (c Conf) Key(k string) string { return c.prefix + k }

func (c Conf) get(key string) string { return strings.TrimSpace(os.Getenv(c.Key(key))) }

// Lookup returns the trimmed value and whether it is non-empty
func (c Conf) Lookup(key string) (string, bool) {
	v := c.get(key)
	return v, v != ""
}

// String returns a required value or a configuration error naming the key
func (c Conf) String(key string) (string, error) {
	v := c.get(key)
	if v == "" {
		return "", perr.Configf(c.Key(key), "missing required env %s", c.Key(key))
	}
	return v, nil
}

// Require checks that every key is set; the first missing one is reported
func (c Conf) Require(keys ...string) error {
	for _, k := range keys {
		if _, err := c.String(k); err != nil {
			return err
		}
	}
	return nil
}

// URL returns a required absolute URL
func (c Conf) URL(key string) (*url.URL, error) {
	s, err := c.String(key)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return nil, perr.Configf(c.Key(key), "%s is not an absolute URL: %q", c.Key(key), s)
	}
	return u, nil
}

// File returns a required path that must exist and be a regular file
func (c Conf) File(key, def string) (string, error) {
	p := c.MayString(key, def)
	if p == "" {
		return "", perr.Configf(c.Key(key), "missing required env %s", c.Key(key))
	}
	st, err := os.Stat(p)
	if err != nil {
		return "", perr.Configf(c.Key(key), "%s: cannot read %s: %v", c.Key(key), p, err)
	}
	if st.IsDir() {
		return "", perr.Configf(c.Key(key), "%s: %s is a directory", c.Key(key), p)
	}
	return p, nil
}

// MayString returns the value or def if missing/empty
func (c Conf) MayString(key, def string) string {
	if v := c.get(key); v != "" {
		return v
	}
	return def
}

// MayInt returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayInt(key string, def int) int {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Int("default", def).Msg("invalid int; using default")
	return def
}

// MayFloat64 returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayFloat64(key string, def float64) float64 {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Float64("default", def).Msg("invalid float64; using default")
	return def
}

// MayBool returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayBool(key string, def bool) bool {
	s := c.get(key)
	if s == "" {
		return def
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Bool("default", def).Msg("invalid bool; using default")
	return def
}

// MayDuration returns the value or def if missing/empty; logs and returns def if invalid
func (c Conf) MayDuration(key string, def time.Duration) time.Duration {
	s := c.get(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	logger.Get().Warn().Str("key", c.Key(key)).Str("value", s).Dur("default", def).Msg("invalid duration; using default")
	return def
}

// MayCSV splits a comma-separated value, dropping blanks; def if nothing remains
func (c Conf) MayCSV(key string, def []string) []string {
	s := c.get(key)
	if s == "" {
		return def
	}
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// MayEnum returns the lower-cased value if it is one of allowed, def when unset,
// and a configuration error otherwise
func (c Conf) MayEnum(key, def string, allowed ...string) (string, error) {
	v := c.MayString(key, def)
	if v == "" {
		return v, nil
	}
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return strings.ToLower(a), nil
		}
	}
	return "", perr.Configf(c.Key(key), "%s=%q is not one of %s", c.Key(key), v, strings.Join(allowed, "|"))
}
