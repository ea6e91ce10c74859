// cmd/web/main.go
//
// ORVSD Central – HTTP entry point.
//
// Start-up
// --------
//
//  1. Start the daily rotating logger (tees to console in a TTY).
//
//  2. Load config.  `vault:` values resolve through Vault when VAULT_ADDR
//     is set.
//
//  3. Open the central store and build the shared component Deps:
//     view engine, session manager, CSRF signer, gatherer, installer.
//
//  4. Build the chi router:
//
//     • Security headers, HTTPS redirect (http.force_https)
//     • RealIP, Recoverer
//     • requestinfo enrichment (UA + optional GeoIP) for audit lines
//     • session → signed-in user, CSRF check on unsafe methods
//     • every registered component, then /metrics
//
//  5. Serve until SIGINT/SIGTERM, then drain for up to 20 seconds.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orvsd/central/internal/bootstrap"
	"github.com/orvsd/central/internal/component"
	"github.com/orvsd/central/internal/form"
	"github.com/orvsd/central/internal/install"
	"github.com/orvsd/central/internal/middleware"
	"github.com/orvsd/central/internal/requestinfo"
	"github.com/orvsd/central/internal/server"
	"github.com/orvsd/central/internal/session"
	"github.com/orvsd/central/internal/view"

	_ "github.com/orvsd/central/components/admin"
	_ "github.com/orvsd/central/components/auth"
	_ "github.com/orvsd/central/components/install"
	_ "github.com/orvsd/central/components/report"
	_ "github.com/orvsd/central/components/siteinfo"
)

const shutdownGrace = 20 * time.Second

func main() {
	logOut, err := bootstrap.Logger("web")
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	defer logOut.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Config and central store ────────────────────────────────────
	//
	cfg, err := bootstrap.Config(ctx, logOut)
	if err != nil {
		logOut.Fatalw("load config", "err", err)
	}

	db, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		logOut.Fatalw("connect central store", "err", err)
	}
	defer db.Close()
	logOut.Infow("central store online")

	//
	// ── 2.  Shared component dependencies ───────────────────────────────
	//
	enricher, err := requestinfo.NewEnricher(cfg.GeoIP.CityDB)
	if err != nil {
		logOut.Warnw("geoip disabled", "db", cfg.GeoIP.CityDB, "err", err)
		enricher, _ = requestinfo.NewEnricher("")
	}
	defer enricher.Close()

	deps := &component.Deps{
		DB:        db,
		Config:    cfg,
		Log:       logOut,
		View:      view.New(logOut),
		Sessions:  session.New(cfg.HTTP.SessionKey, cfg.HTTP.SessionTTL, logOut),
		CSRF:      form.NewCSRF(cfg.HTTP.CSRFKey, logOut),
		Gatherer:  bootstrap.Gatherer(cfg, db, logOut),
		Installer: install.New(cfg.Install, logOut),
	}

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(enricher.Middleware)
	r.Use(deps.Sessions.Middleware(db))
	r.Use(deps.CSRF.Protect)

	if err := component.Mount(r, deps, component.All()...); err != nil {
		logOut.Fatalw("mount components", "err", err)
	}
	r.Handle("/metrics", promhttp.Handler())

	//
	// ── 4.  Serve with graceful shutdown ────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r, cfg.HTTP.WriteTimeout)
	go func() {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logOut.Errorw("http server", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logOut.Infow("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logOut.Errorw("shutdown", "err", err)
	}
}
