package module

import (
	"strings"
	"time"

	"gscsync/internal/platform/config"
	"gscsync/internal/platform/validate"
	"gscsync/internal/services/searchsync/domain"
	"gscsync/internal/services/searchsync/upsert"
)

// Destination kinds
const (
	DestNotion     = "notion"
	DestPostgres   = "postgres"
	DestClickhouse = "clickhouse"
)

// Options holds the sync settings read from the environment
type Options struct {
	Destination string `env:"SYNC_DESTINATION" validate:"oneof=notion postgres clickhouse"`

	NotionToken   string  `env:"NOTION_TOKEN" validate:"required_if=Destination notion"`
	NotionBaseURL string  `env:"NOTION_BASE_URL" validate:"omitempty,url"`
	NotionVersion string  `env:"NOTION_VERSION"`
	RatePerSec    float64 `env:"NOTION_RATE_LIMIT_PER_SEC" validate:"gt=0"`

	ServiceAccount string `env:"GOOGLE_SERVICE_ACCOUNT_JSON" validate:"required"`

	// Table is the default destination, ByDevice the per device ones
	Table    string
	ByDevice map[string]string

	RouteDetailByDevice bool
	SkipSchemaCheck     bool
	Breaker             upsert.BreakerSettings

	// Props overrides destination property names
	Props map[domain.Field]string
}

var deviceSuffix = map[string]string{
	domain.DeviceDesktop: "DESKTOP",
	domain.DeviceMobile:  "MOBILE",
	domain.DeviceTablet:  "TABLET",
}

// FromConfig reads NOTION_*, SYNC_* and GOOGLE_SERVICE_ACCOUNT_JSON.
// SYNC_TABLE* wins over NOTION_DATABASE_ID* when both are set.
func FromConfig(cfg config.Conf) (Options, error) {
	notion := cfg.Prefix("NOTION_")
	syn := cfg.Prefix("SYNC_")

	dest, err := syn.MayEnum("DESTINATION", DestNotion, DestNotion, DestPostgres, DestClickhouse)
	if err != nil {
		return Options{}, err
	}
	sa, err := cfg.File("GOOGLE_SERVICE_ACCOUNT_JSON", "gcp-service-account.json")
	if err != nil {
		return Options{}, err
	}

	o := Options{
		Destination:         dest,
		NotionToken:         notion.MayString("TOKEN", ""),
		NotionBaseURL:       notion.MayString("BASE_URL", ""),
		NotionVersion:       notion.MayString("VERSION", ""),
		RatePerSec:          notion.MayFloat64("RATE_LIMIT_PER_SEC", upsert.DefaultRate),
		ServiceAccount:      sa,
		Table:               table(cfg, ""),
		ByDevice:            map[string]string{},
		RouteDetailByDevice: syn.MayBool("ROUTE_DETAIL_BY_DEVICE", false),
		SkipSchemaCheck:     syn.MayBool("SKIP_SCHEMA_CHECK", false),
		Breaker: upsert.BreakerSettings{
			Failures: uint32(max(syn.MayInt("BREAKER_FAILURES", 0), 0)),
			Timeout:  syn.MayDuration("BREAKER_TIMEOUT", 30*time.Second),
		},
		Props: map[domain.Field]string{},
	}
	for dev, suffix := range deviceSuffix {
		if t := table(cfg, "_"+suffix); t != "" {
			o.ByDevice[dev] = t
		}
	}
	props := syn.Prefix("PROP_")
	for _, f := range domain.Fields {
		if v := props.MayString(envName(f), ""); v != "" {
			o.Props[f] = v
		}
	}

	if err := validate.Struct(o); err != nil {
		return Options{}, err
	}
	return o, nil
}

func table(cfg config.Conf, suffix string) string {
	if t := cfg.MayString("SYNC_TABLE"+suffix, ""); t != "" {
		return t
	}
	return cfg.MayString("NOTION_DATABASE_ID"+suffix, "")
}

// envName maps a field to its SYNC_PROP_ suffix, e.g. impressions -> IMPRESSIONS
func envName(f domain.Field) string { return strings.ToUpper(string(f)) }
