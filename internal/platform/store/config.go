package store

import (
	"time"

	"gscsync/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs; zero means the defaults in openPG
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled    bool
	URL        string
	LogSQL     bool
	ClientName string
	ClientTag  string
}

// PGFromEnv reads DBURL, MAX_CONNS, SLOW_MS, LOG_SQL, CONNECT_RETRIES and PING_TIMEOUT under c's prefix
func PGFromEnv(c config.Conf) (PGConfig, error) {
	url, err := c.String("DBURL")
	if err != nil {
		return PGConfig{}, err
	}
	return PGConfig{
		Enabled:        true,
		URL:            url,
		MaxConns:       int32(c.MayInt("MAX_CONNS", 4)),
		SlowQueryMs:    c.MayInt("SLOW_MS", 500),
		LogSQL:         c.MayBool("LOG_SQL", false),
		ConnectRetries: c.MayInt("CONNECT_RETRIES", 0),
		PingTimeout:    c.MayDuration("PING_TIMEOUT", 0),
	}, nil
}

// CHFromEnv reads DBURL and LOG_SQL under c's prefix
func CHFromEnv(c config.Conf, name, tag string) (CHConfig, error) {
	url, err := c.String("DBURL")
	if err != nil {
		return CHConfig{}, err
	}
	return CHConfig{
		Enabled:    true,
		URL:        url,
		LogSQL:     c.MayBool("LOG_SQL", false),
		ClientName: name,
		ClientTag:  tag,
	}, nil
}
