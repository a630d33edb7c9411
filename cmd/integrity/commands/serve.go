package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"counsel/internal/integrity/handler"
	"counsel/internal/integrity/scheduler"
	"counsel/internal/platform/httpserver"
	platformmetrics "counsel/internal/platform/metrics"
	"counsel/pkg/platform/httputil"
	"counsel/pkg/platform/middleware/admin"
	"counsel/pkg/platform/middleware/requestid"
	"counsel/pkg/platform/middleware/requesttime"
)

func newServeCommand(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP API and the maintenance scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					a.logger.Error("shutdown cleanup failed", "error", err)
				}
			}()
			return a.serve(ctx)
		},
	}
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Health(ctx); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", platformmetrics.Handler(a.registry))

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(a.cfg.Server.AdminToken, a.logger))
		handler.New(a.svc, a.logger).Register(r)
	})
	return r
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.Server.AdminToken == "" {
		a.logger.WarnContext(ctx, "admin token not set; admin endpoints will reject every request")
	}
	srv := httpserver.New(a.cfg.Server, a.router())

	schedOpts := []scheduler.Option{
		scheduler.WithInterval(a.cfg.Integrity.ScanInterval),
		scheduler.WithAutoRepair(a.cfg.Integrity.AutoRepair),
		scheduler.WithLogger(a.logger),
	}
	if a.locker != nil {
		schedOpts = append(schedOpts, scheduler.WithLocker(a.locker, a.cfg.Integrity.LockTTL))
	}
	sched := scheduler.New(a.svc, a.cfg.Integrity.Guilds, schedOpts...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.InfoContext(ctx, "starting integrity server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down integrity server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
