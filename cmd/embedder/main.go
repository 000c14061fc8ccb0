package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"embed-service/internal/app"
	"embed-service/internal/embeddings"
	"embed-service/internal/httputil"
)

type embedRequest struct {
	Texts []string `json:"texts" validate:"required"`
}

type embedResponse struct {
	Embeddings []embeddings.Vector `json:"embeddings"`
}

type modelResponse struct {
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	if err := run(ctx, deps); err != nil {
		deps.Log.Error("embedder stopped", "err", err)
		deps.Close()
		os.Exit(1)
	}
	deps.Log.Info("embedder stopped")
}

// run serves HTTP and, when configured, the NATS responder until ctx ends
// or one of them fails.
func run(ctx context.Context, deps app.Deps) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Log.Info("embedder listening", "addr", srv.Addr, "model", deps.Model.Model())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if deps.Responder != nil {
		g.Go(func() error {
			return deps.Responder.Serve(gctx)
		})
	}

	return g.Wait()
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.RequestTimeout)

	r.Post("/embed", embedHandler(deps))
	r.Get("/model", modelHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	return r
}

func embedHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := httputil.DecodeJSON(w, r, deps.Config.MaxBodyBytes, &req); err != nil {
			if errors.Is(err, httputil.ErrBodyTooLarge) {
				httputil.Fail(deps.Log, w, err.Error(), err, http.StatusRequestEntityTooLarge)
				return
			}
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}

		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		vecs, err := deps.Model.Embed(r.Context(), req.Texts)
		if err != nil && errors.Is(r.Context().Err(), context.DeadlineExceeded) {
			// middleware.Timeout writes the 504 once the handler returns
			deps.Log.Warn("embed request timed out", "texts", len(req.Texts), "err", err)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed texts", err, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, embedResponse{Embeddings: vecs})
	}
}

func modelHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, modelResponse{
			Model:      deps.Model.Model(),
			Dimensions: deps.Model.Dimensions(),
			Normalize:  deps.Model.Normalized(),
		})
	}
}
