package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-translate/internal/api"
)

const shutdownTimeout = 30 * time.Second

// serveOptions holds the serve command flags.
type serveOptions struct {
	addr      string
	provider  string
	model     string
	parallel  int
	maxUpload int64
}

// ServeCmd creates the serve command.
func ServeCmd(env *Env) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translation API over HTTP",
		Long: `Serve the translation API over HTTP.

Endpoints:
  GET  /healthz        liveness check
  GET  /v1/languages   supported target languages
  POST /v1/estimate    multipart "files"; token count and cost per file
  POST /v1/translate   multipart "files", "target", optional "private";
                       add ?format=zip to receive translations.zip

The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  translate serve --addr :8080
  translate serve --provider deepseek --parallel 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env, opts, nil)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "Translation provider: openai, deepseek, vertex")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model name")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "Max concurrent chunk requests per document (1-10)")
	cmd.Flags().Int64Var(&opts.maxUpload, "max-upload", api.DefaultMaxUploadBytes, "Max request size in bytes")

	return cmd
}

// runServe serves until ctx is done. When ready is non-nil it receives the
// bound address once the listener is open.
func runServe(ctx context.Context, env *Env, opts serveOptions, ready chan<- string) error {
	s, err := newSession(ctx, env, sessionOptions{
		provider: opts.provider,
		model:    opts.model,
		parallel: opts.parallel,
	})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	log := env.logger()
	handler := api.NewServer(api.Config{
		Limits:         s.limits(),
		Counter:        s.counter,
		Translator:     s.client,
		Summarizer:     s.client,
		Cache:          s.cache,
		MaxUploadBytes: opts.maxUpload,
	}, log)

	ln, err := net.Listen("tcp", opts.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", opts.addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	fmt.Fprintf(env.Stderr, "Listening on %s (provider: %s)\n", addr, s.provider)
	log.Info("server started", "addr", addr, "provider", s.provider.String(), "model", s.cfg.Model)
	if ready != nil {
		ready <- addr
	}

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
