// Command gscsync copies Search Console search analytics into Notion, Postgres or ClickHouse
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gscsync/internal/core/version"
	"gscsync/internal/modkit"
	"gscsync/internal/modkit/module"
	"gscsync/internal/platform/config"
	perr "gscsync/internal/platform/errors"
	"gscsync/internal/platform/logger"
	"gscsync/internal/platform/metrics"
	phttp "gscsync/internal/platform/net/http"
	"gscsync/internal/platform/store"
	"gscsync/internal/services/searchsync/domain"

	opsmod "gscsync/internal/services/ops/module"
	syncmod "gscsync/internal/services/searchsync/module"
)

// Exit codes
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

var (
	// baseHTTP is the transport under both API clients; nil uses the default
	baseHTTP *http.Client
	now      = time.Now
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "gscsync:", err)
		return exitUsage
	}
	if f.Version {
		_, _ = fmt.Fprintln(stdout, "gscsync", version.Info())
		return exitOK
	}
	if err := config.LoadDotEnv(f.EnvFile); err != nil {
		_, _ = fmt.Fprintln(stderr, "gscsync:", err)
		return exitUsage
	}
	logger.Init(logger.FromEnv())
	l := logger.Get()
	l.Debug().Str("build", version.Info().String()).Msg("starting")

	var p domain.Params
	if !f.ListSites {
		if p, err = f.params(now().UTC()); err != nil {
			l.Error().Err(err).Msg("invalid arguments")
			return exitUsage
		}
	}

	root := config.New()
	opts, err := syncmod.FromConfig(root)
	if err != nil {
		l.Error().Err(err).Msg("invalid configuration")
		return exitUsage
	}

	st, err := openStore(ctx, root, opts.Destination, *l)
	if err != nil {
		l.Error().Err(err).Msg("store open failed")
		return exitCode(err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	mx := metrics.New()
	deps := modkit.Deps{
		Log:     *l,
		Cfg:     root,
		PG:      st.PG,
		CH:      st.CH,
		Metrics: mx,
		HTTP:    baseHTTP,
	}

	sm, err := syncmod.New(ctx, deps, opts)
	if err != nil {
		l.Error().Err(err).Msg("sync setup failed")
		return exitCode(err)
	}
	ops := opsmod.New(deps)
	module.Register(sm.Name(), sm.Ports())
	module.Register(ops.Name(), ops.Ports())
	l.Debug().Strs("modules", module.Names()).Msg("modules wired")
	runner := module.MustPortsOf[syncmod.Ports](sm).Runner

	if f.ListSites {
		return listSites(ctx, runner, stdout, l)
	}

	metricsCfg := root.Prefix("METRICS_")
	if _, ok := metricsCfg.Lookup("ADDR"); ok {
		srvCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := phttp.NewServer(metricsCfg)
		ops.MountRoutes(srv.Router())
		go func() {
			if err := srv.Run(srvCtx); err != nil {
				l.Error().Err(err).Msg("ops server stopped")
			}
		}()
	}

	rep, runErr := runner.Run(ctx, p)
	_, _ = fmt.Fprintln(stdout, rep.Summary())

	pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	gw := metricsCfg.MayString("PUSHGATEWAY_URL", "")
	if err := mx.Push(pushCtx, gw, "gscsync", map[string]string{"mode": string(p.Mode)}); err != nil {
		l.Warn().Err(err).Str("gateway", gw).Msg("metrics push failed")
	}

	if runErr != nil {
		l.Error().Err(runErr).Msg("sync failed")
		return exitCode(runErr)
	}
	return exitOK
}

// openStore opens only the backend the destination needs
func openStore(ctx context.Context, root config.Conf, dest string, l logger.Logger) (*store.Store, error) {
	cfg := store.Config{AppName: "gscsync"}
	var err error
	switch dest {
	case syncmod.DestPostgres:
		cfg.PG, err = store.PGFromEnv(root.Prefix("SERVICE_PGSQL_"))
	case syncmod.DestClickhouse:
		cfg.CH, err = store.CHFromEnv(root.Prefix("SERVICE_CLICKHOUSE_"), "gscsync", "sync")
	}
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg, store.WithLogger(l))
}

func listSites(ctx context.Context, r domain.RunnerPort, stdout io.Writer, l *logger.Logger) int {
	sites, err := r.ListSites(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list sites failed")
		return exitCode(err)
	}
	if len(sites) == 0 {
		_, _ = fmt.Fprintln(stdout, "(no property found)")
		return exitOK
	}
	for _, s := range sites {
		_, _ = fmt.Fprintf(stdout, "- %s | %s\n", s.PermissionLevel, s.URL)
	}
	return exitOK
}

func exitCode(err error) int {
	if perr.IsConfig(err) {
		return exitUsage
	}
	return exitFailed
}
