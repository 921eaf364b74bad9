package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/samcharles93/helix/internal/api"
	"github.com/samcharles93/helix/internal/logger"
	"github.com/samcharles93/helix/internal/progress"
	"github.com/samcharles93/helix/internal/trainer"
)

// statusRun ties a command to its entry in the run store. A nil *statusRun
// means no status server was requested.
type statusRun struct {
	store *api.RunStore
	id    string
	stop  func()
}

// startStatus starts the status server when addr is set and registers a run
// of the given kind.
func startStatus(ctx context.Context, addr, kind string) *statusRun {
	if addr == "" {
		return nil
	}
	log := logger.FromContext(ctx)
	store := api.NewRunStore()
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	api.NewServer(store).Register(e)

	sctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := echo.StartConfig{
			Address: addr,
			BeforeServeFunc: func(srv *http.Server) error {
				srv.ReadHeaderTimeout = 10 * time.Second
				return nil
			},
		}
		if err := sc.Start(sctx, e); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("status server stopped", "error", err)
		}
	}()

	run := &statusRun{
		store: store,
		id:    store.Create(kind),
		stop: func() {
			cancel()
			<-done
		},
	}
	log.Info("status server listening", "address", addr, "run", run.id)
	return run
}

// finish records the outcome and shuts the server down.
func (r *statusRun) finish(err error) {
	if r == nil {
		return
	}
	if err != nil {
		_ = r.store.Fail(r.id, err)
	} else {
		_ = r.store.Complete(r.id)
	}
	r.stop()
}

// loopOptions builds the reporter set for one loop pass. Silent hides the
// terminal bar but the status server still receives progress.
func (r *statusRun) loopOptions(phase string) trainer.Options {
	opts := trainer.Options{Device: deviceName}
	var remote progress.Reporter
	if r != nil {
		remote = api.NewReporter(r.store, r.id, phase)
	}
	if silent {
		if remote == nil {
			opts.Silent = true
		} else {
			opts.Reporter = remote
		}
		return opts
	}
	opts.Reporter = progress.Multi(progress.NewBar(os.Stderr, phase), remote)
	return opts
}
