package main

import (
	"flag"
	"io"
	"time"

	perr "gscsync/internal/platform/errors"
	tim "gscsync/internal/platform/time"
	"gscsync/internal/platform/validate"
	"gscsync/internal/services/searchsync/domain"
	"gscsync/internal/services/searchsync/fetch"
)

// cliFlags mirrors the command line; tags name the flag in validation errors
type cliFlags struct {
	SiteURL   string `flag:"site-url"`
	Start     string `flag:"start"`
	End       string `flag:"end"`
	DaysBack  int    `flag:"days-back" validate:"min=1"`
	LagDays   int    `flag:"lag-days" validate:"min=0"`
	RowLimit  int    `flag:"row-limit" validate:"min=1,max=25000"`
	Country   string `flag:"country"`
	Device    string `flag:"device"`
	Mode      string `flag:"mode"`
	ListSites bool   `flag:"list-sites"`
	DryRun    bool   `flag:"dry-run"`
	EnvFile   string `flag:"env-file"`
	Version   bool   `flag:"version"`
}

func parseFlags(args []string, stderr io.Writer) (cliFlags, error) {
	var f cliFlags
	fs := flag.NewFlagSet("gscsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.SiteURL, "site-url", "", "Search Console property, e.g. sc-domain:example.com or https://example.com/")
	fs.StringVar(&f.Start, "start", "", "first day YYYY-MM-DD (with -end, overrides the rolling window)")
	fs.StringVar(&f.End, "end", "", "last day YYYY-MM-DD inclusive")
	fs.IntVar(&f.DaysBack, "days-back", 3, "rolling window length in days")
	fs.IntVar(&f.LagDays, "lag-days", 2, "days between today and the window end, data lands late")
	fs.IntVar(&f.RowLimit, "row-limit", fetch.MaxPageSize, "rows per API page")
	fs.StringVar(&f.Country, "country", "", "country filter, ISO alpha-2 or alpha-3")
	fs.StringVar(&f.Device, "device", "", "device filter: DESKTOP, MOBILE or TABLET")
	fs.StringVar(&f.Mode, "mode", string(domain.ModeDetail), "detail or weekly-device")
	fs.BoolVar(&f.ListSites, "list-sites", false, "print accessible properties and exit")
	fs.BoolVar(&f.DryRun, "dry-run", false, "fetch and log records without writing them")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	fs.BoolVar(&f.Version, "version", false, "print the build and exit")
	if err := fs.Parse(args); err != nil {
		return f, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "parse flags")
	}
	if fs.NArg() > 0 {
		return f, perr.InvalidArgf("unexpected arguments %v", fs.Args())
	}
	return f, validate.Struct(f)
}

// params turns flags into run parameters. An explicit range needs both ends.
func (f cliFlags) params(today time.Time) (domain.Params, error) {
	if f.SiteURL == "" {
		return domain.Params{}, perr.Configf("site-url", "-site-url is required")
	}
	mode, err := domain.ParseMode(f.Mode)
	if err != nil {
		return domain.Params{}, err
	}
	filters, err := domain.BuildFilters(f.Country, f.Device)
	if err != nil {
		return domain.Params{}, err
	}

	var w domain.Window
	switch {
	case f.Start != "" && f.End != "":
		start, err := tim.ParseDate(f.Start)
		if err != nil {
			return domain.Params{}, perr.Configf("start", "-start %q: want YYYY-MM-DD", f.Start)
		}
		end, err := tim.ParseDate(f.End)
		if err != nil {
			return domain.Params{}, perr.Configf("end", "-end %q: want YYYY-MM-DD", f.End)
		}
		if w, err = domain.NewWindow(start, end); err != nil {
			return domain.Params{}, err
		}
	case f.Start != "" || f.End != "":
		return domain.Params{}, perr.Configf("start", "-start and -end go together")
	default:
		if w, err = domain.RollingWindow(today, f.DaysBack, f.LagDays); err != nil {
			return domain.Params{}, err
		}
	}

	return domain.Params{
		SiteURL:  f.SiteURL,
		Window:   w,
		Mode:     mode,
		RowLimit: f.RowLimit,
		Filters:  filters,
		DryRun:   f.DryRun,
	}, nil
}
