// internal/siteinfo/gather.go
//
// Gather run orchestration.
//
// Context
// -------
// One run walks Source tables in scan order and, per row:
//
//	Normalize → ResolveIdentity → WriteDetail
//
// Each record is one transaction (database.RunTx), so a record's School,
// Site, and SiteDetail commit or roll back together.  A failed record
// aborts the run; records committed before it stay committed.
//
// A run-level Locker (normally a MySQL advisory lock) keeps two runs from
// double-writing.  A held lock returns ErrRunInProgress straight away.
//
// Failure policy
// --------------
//   • Catalog scan failure          → fatal.
//   • Per-schema read failure       → fatal, or skipped and logged when
//                                     IsolateSources is set.
//   • Degraded optional fields      → one warn line per record, kept.
//   • Record without a baseurl      → one warn line, skipped.
//   • Site already written this run → one warn line, skipped; the first
//                                     source wins.
//   • Central store write failure   → fatal.

package siteinfo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/orvsd/central/internal/database"
	"github.com/orvsd/central/internal/metrics"
)

// Locker guards a whole run.  Acquire returns a release func, or an error
// wrapping database.ErrLocked when another run holds the lock.
type Locker interface {
	Acquire(ctx context.Context) (func(), error)
}

// Gatherer runs siteinfo aggregation into the central store.
type Gatherer struct {
	Source Source
	Store  *sqlx.DB
	Lock   Locker // nil disables run-level locking
	Log    *zap.SugaredLogger

	// IsolateSources skips a schema that cannot be read instead of
	// aborting the run.
	IsolateSources bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Summary describes one finished (or aborted) run.
type Summary struct {
	RunID          string        `json:"run_id"`
	Started        time.Time     `json:"started"`
	Duration       time.Duration `json:"duration"`
	Tables         int           `json:"tables"`
	Rows           int           `json:"rows"`
	Written        int           `json:"written"`
	Skipped        int           `json:"skipped"`
	Degraded       int           `json:"degraded"`
	SchoolsCreated int           `json:"schools_created"`
	SitesCreated   int           `json:"sites_created"`
	SourcesFailed  int           `json:"sources_failed"`
	Duplicates     int           `json:"duplicates"`
}

// errDuplicateSite rolls back a record whose site already has a detail
// from this run.
var errDuplicateSite = errors.New("site already written this run")

func (g *Gatherer) log() *zap.SugaredLogger {
	if g.Log != nil {
		return g.Log
	}
	return zap.S()
}

func (g *Gatherer) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Run performs one aggregation pass.  The returned Summary is filled in
// as far as the run got, even on error.
func (g *Gatherer) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Started: g.now().UTC()}
	log := g.log().With("run_id", sum.RunID)

	release, err := g.acquire(ctx)
	if errors.Is(err, ErrRunInProgress) {
		metrics.GatherRunsTotal.WithLabelValues(metrics.ResultInProgress).Inc()
		log.Warnw("gather skipped, another run holds the lock")
		return sum, err
	}
	if err != nil {
		return g.abort(log, &sum, err)
	}
	defer release()

	log.Infow("gather started")

	tables, err := g.Source.Tables(ctx)
	if err != nil {
		return g.abort(log, &sum, err)
	}
	sum.Tables = len(tables)

	seen := make(map[int64]string) // site ID → source that wrote it
	for _, t := range tables {
		if err := g.gatherTable(ctx, log, t, &sum, seen); err != nil {
			var se *SourceError
			if g.IsolateSources && errors.As(err, &se) {
				sum.SourcesFailed++
				log.Warnw("source skipped", "table", t.String(), "err", err)
				continue
			}
			return g.abort(log, &sum, err)
		}
	}

	sum.Duration = g.now().Sub(sum.Started)
	metrics.GatherRunsTotal.WithLabelValues(metrics.ResultOK).Inc()
	metrics.GatherLastSuccess.SetToCurrentTime()
	log.Infow("gather finished",
		"tables", sum.Tables,
		"rows", sum.Rows,
		"written", sum.Written,
		"skipped", sum.Skipped,
		"degraded", sum.Degraded,
		"schools_created", sum.SchoolsCreated,
		"sites_created", sum.SitesCreated,
		"sources_failed", sum.SourcesFailed,
		"duplicates", sum.Duplicates,
		"duration", sum.Duration,
	)
	return sum, nil
}

func (g *Gatherer) gatherTable(ctx context.Context, log *zap.SugaredLogger, t Table, sum *Summary, seen map[int64]string) error {
	rows, err := g.Source.Rows(ctx, t)
	if err != nil {
		return err
	}
	log.Debugw("source read", "table", t.String(), "rows", len(rows))

	for _, raw := range rows {
		sum.Rows++

		rec, degraded := Normalize(raw)
		rec.Source = t.String()
		if len(degraded) > 0 {
			sum.Degraded++
			metrics.GatherDegradedFieldsTotal.Add(float64(len(degraded)))
			log.Warnw("record defaulted", "source", rec.Source, "domain", rec.Domain, "fields", fieldNames(degraded))
		}
		if !rec.Resolvable() {
			sum.Skipped++
			log.Warnw("record skipped, no baseurl", "source", rec.Source)
			continue
		}

		if err := g.writeRecord(ctx, log, rec, sum, seen); err != nil {
			return err
		}
	}
	return nil
}

// writeRecord resolves and writes rec inside one transaction.  Counters
// are only bumped after commit.  A site seen earlier in the run is rolled
// back so it keeps a single detail row and the first source's fields.
func (g *Gatherer) writeRecord(ctx context.Context, log *zap.SugaredLogger, rec Record, sum *Summary, seen map[int64]string) error {
	var id *Identity
	err := database.RunTx(ctx, g.Store, func(tx *sqlx.Tx) error {
		var err error
		if id, err = ResolveIdentity(ctx, tx, rec); err != nil {
			return err
		}
		if _, dup := seen[id.Site.ID]; dup {
			return errDuplicateSite
		}
		_, err = WriteDetail(ctx, tx, id.Site, rec, sum.Started)
		return err
	})
	if errors.Is(err, errDuplicateSite) {
		sum.Duplicates++
		log.Warnw("record skipped, site already written this run",
			"source", rec.Source, "domain", rec.Domain, "first_source", seen[id.Site.ID])
		return nil
	}
	if err != nil {
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		return fmt.Errorf("record %s from %s: %w", rec.Domain, rec.Source, err)
	}

	seen[id.Site.ID] = rec.Source
	sum.Written++
	metrics.GatherRowsTotal.Inc()
	if id.SchoolCreated {
		sum.SchoolsCreated++
		metrics.GatherSchoolsCreatedTotal.Inc()
	}
	if id.SiteCreated {
		sum.SitesCreated++
		metrics.GatherSitesCreatedTotal.Inc()
	}
	return nil
}

// acquire takes the run lock.  It returns a no-op release when Lock is
// nil.
func (g *Gatherer) acquire(ctx context.Context) (func(), error) {
	if g.Lock == nil {
		return func() {}, nil
	}
	release, err := g.Lock.Acquire(ctx)
	switch {
	case errors.Is(err, database.ErrLocked):
		return nil, ErrRunInProgress
	case err != nil:
		return nil, fmt.Errorf("%w: acquire run lock: %v", ErrPersistence, err)
	}
	return release, nil
}

func (g *Gatherer) abort(log *zap.SugaredLogger, sum *Summary, err error) (Summary, error) {
	sum.Duration = g.now().Sub(sum.Started)
	metrics.GatherRunsTotal.WithLabelValues(metrics.ResultFailed).Inc()
	log.Errorw("gather aborted",
		"err", err,
		"written", sum.Written,
		"rows", sum.Rows,
	)
	return *sum, err
}

func fieldNames(ds []Degradation) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Field
	}
	return out
}
