package main

import (
	"io"
	"testing"
	"time"

	perr "gscsync/internal/platform/errors"
	"gscsync/internal/services/searchsync/domain"
)

func TestParseFlags_Defaults(t *testing.T) {
	f, err := parseFlags([]string{"-site-url", "sc-domain:example.com"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if f.DaysBack != 3 || f.LagDays != 2 || f.RowLimit != 25000 || f.Mode != "detail" || f.EnvFile != ".env" {
		t.Fatalf("defaults = %+v", f)
	}
}

func TestParams_RollingWindowAndFilters(t *testing.T) {
	f, err := parseFlags([]string{"-site-url", "s", "-days-back", "7", "-lag-days", "3", "-country", "FR", "-device", "mobile"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	p, err := f.params(time.Date(2024, 5, 20, 23, 59, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Window.String() != "2024-05-11..2024-05-17" {
		t.Fatalf("window = %s", p.Window)
	}
	if len(p.Filters) != 1 || len(p.Filters[0].Filters) != 2 {
		t.Fatalf("filters = %+v", p.Filters)
	}
	got := p.Filters[0].Filters
	if got[0].Expression != "fra" || got[1].Expression != domain.DeviceMobile {
		t.Fatalf("filters = %+v", got)
	}
}

func TestParams_ExplicitRange(t *testing.T) {
	f, err := parseFlags([]string{"-site-url", "s", "-start", "2024-01-01", "-end", "2024-01-31", "-mode", "weekly-device"}, io.Discard)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	p, err := f.params(time.Now())
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if p.Window.Len() != 31 || p.Mode != domain.ModeWeeklyDevice {
		t.Fatalf("params = %+v", p)
	}
}

func TestParams_ModeIsNormalized(t *testing.T) {
	cases := map[string]domain.Mode{
		"WEEKLY-DEVICE": domain.ModeWeeklyDevice,
		" Detail ":      domain.ModeDetail,
		"":              domain.ModeDetail,
	}
	for in, want := range cases {
		f, err := parseFlags([]string{"-site-url", "s", "-mode", in}, io.Discard)
		if err != nil {
			t.Fatalf("parseFlags(%q): %v", in, err)
		}
		p, err := f.params(time.Now())
		if err != nil || p.Mode != want {
			t.Fatalf("mode %q = %q, %v", in, p.Mode, err)
		}
	}
}

func TestParams_Errors(t *testing.T) {
	cases := []struct {
		name  string
		f     cliFlags
		field string
	}{
		{"site", cliFlags{DaysBack: 3, Mode: "detail"}, "site-url"},
		{"bad start", cliFlags{SiteURL: "s", Start: "01/02/2024", End: "2024-01-03", Mode: "detail"}, "start"},
		{"bad end", cliFlags{SiteURL: "s", Start: "2024-01-02", End: "tomorrow", Mode: "detail"}, "end"},
		{"half range", cliFlags{SiteURL: "s", End: "2024-01-03", Mode: "detail"}, "start"},
		{"device", cliFlags{SiteURL: "s", DaysBack: 1, Mode: "detail", Device: "tv"}, "device"},
		{"days back", cliFlags{SiteURL: "s", DaysBack: 0, Mode: "detail"}, "days-back"},
		{"mode", cliFlags{SiteURL: "s", DaysBack: 1, Mode: "hourly"}, "mode"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := c.f.params(time.Now())
			e, ok := perr.As(err)
			if !ok || !perr.IsConfig(err) || e.Field() != c.field {
				t.Fatalf("want config error on %s, got %v", c.field, err)
			}
		})
	}
}
