// cmd/gather/main.go
//
// ORVSD Central – batch entry point, normally run from cron.
//
// Modes
// -----
//
//	gather                 one aggregation run (default)
//	gather -migrate        apply the central schema before the run
//	gather -create-admin   create the admin.* account if no admin exists
//	gather -mirror         copy raw siteinfo rows into the staging table
//	gather -setup-only     stop after -migrate/-create-admin
//
// -migrate and -create-admin may be combined with either run mode; they
// execute first.  Exit status is 0 on success, 1 on any failure, and 2
// when another run holds the gather lock.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/orvsd/central/internal/auth"
	"github.com/orvsd/central/internal/bootstrap"
	"github.com/orvsd/central/internal/central"
	"github.com/orvsd/central/internal/siteinfo"
)

const exitLocked = 2

func main() {
	var (
		migrate     = flag.Bool("migrate", false, "apply the central schema")
		createAdmin = flag.Bool("create-admin", false, "create the configured admin account if none exists")
		mirror      = flag.Bool("mirror", false, "copy raw rows into the siteinfo staging table instead of gathering")
		only        = flag.Bool("setup-only", false, "run -migrate/-create-admin and exit without gathering")
	)
	flag.Parse()

	logOut, err := bootstrap.Logger("gather")
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}
	os.Exit(run(logOut, *migrate, *createAdmin, *mirror, *only))
}

func run(logOut *zap.SugaredLogger, migrate, createAdmin, mirror, setupOnly bool) int {
	defer logOut.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.Config(ctx, logOut)
	if err != nil {
		logOut.Errorw("load config", "err", err)
		return 1
	}
	db, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		logOut.Errorw("connect central store", "err", err)
		return 1
	}
	defer db.Close()

	if migrate {
		if err := central.Migrate(ctx, db); err != nil {
			logOut.Errorw("migrate", "err", err)
			return 1
		}
		logOut.Infow("schema applied")
	}

	if createAdmin {
		a := cfg.Admin
		if a.Username == "" || a.Password == "" {
			logOut.Errorw("create admin: admin.username and admin.password are required")
			return 1
		}
		created, err := auth.CreateAdmin(ctx, db, a.Username, a.Email, a.Password)
		if err != nil {
			logOut.Errorw("create admin", "err", err)
			return 1
		}
		logOut.Infow("admin bootstrap", "user", a.Username, "created", created)
	}

	if setupOnly {
		return 0
	}

	g := bootstrap.Gatherer(cfg, db, logOut)
	if g == nil {
		logOut.Errorw("gather: siteinfo.host is not configured")
		return 1
	}

	if mirror {
		n, err := g.Mirror(ctx)
		if err != nil {
			logOut.Errorw("mirror failed", "copied", n, "err", err)
			return exitCode(err)
		}
		logOut.Infow("mirror finished", "copied", n)
		return 0
	}

	sum, err := g.Run(ctx)
	if err != nil {
		return exitCode(err)
	}
	fmt.Printf("run %s: %d tables, %d rows, %d written, %d skipped, %d degraded, %d duplicates, %d schools and %d sites created\n",
		sum.RunID, sum.Tables, sum.Rows, sum.Written, sum.Skipped, sum.Degraded, sum.Duplicates, sum.SchoolsCreated, sum.SitesCreated)
	return 0
}

func exitCode(err error) int {
	if errors.Is(err, siteinfo.ErrRunInProgress) {
		return exitLocked
	}
	return 1
}
