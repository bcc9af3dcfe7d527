package domain

import (
	"testing"

	perr "gscsync/internal/platform/errors"
)

func TestNormalizeCountry(t *testing.T) {
	ok := map[string]string{"FR": "fra", "fr": "fra", "fra": "fra", "DEU": "deu", " us ": "usa"}
	for in, want := range ok {
		got, err := NormalizeCountry(in)
		if err != nil || got != want {
			t.Errorf("NormalizeCountry(%q) = %q, %v want %q", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "x", "france", "150", "ZZ"} {
		if _, err := NormalizeCountry(bad); !perr.IsConfig(err) {
			t.Errorf("NormalizeCountry(%q) should fail, got %v", bad, err)
		}
	}
}

func TestNormalizeDevice(t *testing.T) {
	if d, err := NormalizeDevice(" mobile"); err != nil || d != DeviceMobile {
		t.Fatalf("got %q, %v", d, err)
	}
	if _, err := NormalizeDevice("watch"); !perr.IsConfig(err) {
		t.Fatalf("unknown device: %v", err)
	}
}

func TestBuildFilters(t *testing.T) {
	gs, err := BuildFilters("", "")
	if err != nil || gs != nil {
		t.Fatalf("empty = %v, %v", gs, err)
	}

	gs, err = BuildFilters("FR", "tablet")
	if err != nil {
		t.Fatalf("BuildFilters: %v", err)
	}
	if len(gs) != 1 || len(gs[0].Filters) != 2 {
		t.Fatalf("groups = %+v", gs)
	}
	if f := gs[0].Filters[0]; f.Dimension != DimCountry || f.Operator != "equals" || f.Expression != "fra" {
		t.Fatalf("country filter = %+v", f)
	}
	if f := gs[0].Filters[1]; f.Dimension != DimDevice || f.Expression != DeviceTablet {
		t.Fatalf("device filter = %+v", f)
	}

	if _, err := BuildFilters("nowhere", ""); err == nil {
		t.Fatalf("bad country should fail")
	}
	if _, err := BuildFilters("", "tv"); err == nil {
		t.Fatalf("bad device should fail")
	}
}

func TestParseMode(t *testing.T) {
	if m, _ := ParseMode("Weekly-Device"); m != ModeWeeklyDevice {
		t.Fatalf("mode = %q", m)
	}
	if m, _ := ParseMode(""); m != ModeDetail {
		t.Fatalf("default mode = %q", m)
	}
	if _, err := ParseMode("hourly"); !perr.IsConfig(err) {
		t.Fatalf("bad mode: %v", err)
	}
	if len(ModeWeeklyDevice.Dimensions()) != 2 || len(ModeDetail.Dimensions()) != 5 {
		t.Fatalf("dimensions")
	}
}
