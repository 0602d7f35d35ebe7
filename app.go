package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"gitlab.com/gitlab-org/labkit/correlation"
	"gitlab.com/gitlab-org/labkit/log"

	"gitlab.com/caseproxy/caseproxy/internal/config"
	"gitlab.com/caseproxy/caseproxy/internal/dircache"
	"gitlab.com/caseproxy/caseproxy/internal/handlers"
	"gitlab.com/caseproxy/caseproxy/internal/logging"
	"gitlab.com/caseproxy/caseproxy/internal/ratelimiter"
	"gitlab.com/caseproxy/caseproxy/internal/resolver"
	"gitlab.com/caseproxy/caseproxy/internal/serving"
	"gitlab.com/caseproxy/caseproxy/internal/vfs"
	"gitlab.com/caseproxy/caseproxy/internal/vfs/local"
)

type theApp struct {
	config  *config.Config
	handler http.Handler
}

func servingFromConfig(cfg *config.Config) serving.Serving {
	switch cfg.Serving.Mode {
	case config.ModeSendfile:
		return serving.NewSendfile()
	case config.ModeAccelRedirect:
		return serving.NewAccelRedirect(cfg.Serving.NginxPrefix)
	default:
		return serving.NewDirect()
	}
}

func newApp(cfg *config.Config) (*theApp, error) {
	root, err := local.Root(cfg.General.RootDir)
	if err != nil {
		return nil, err
	}

	fs := vfs.Instrumented(local.FS{}, "local")
	cache := dircache.New(fs, cfg.DirCache.MaxEntries, cfg.DirCache.Expiry)
	res := resolver.New(root, fs, cache)

	var handler http.Handler = handlers.New(cfg.General.URLPrefix, res, servingFromConfig(cfg))
	handler = handlers.CorsHandler(cfg, handler)

	rl := ratelimiter.New(cfg.RateLimit.SourceIPLimitPerSecond, cfg.RateLimit.SourceIPBurst)
	handler = rl.SourceIPLimiter(handler)

	handler, err = logging.AccessLogger(handler, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	handler = correlation.InjectCorrelationID(handler, correlation.WithPropagation())

	return &theApp{config: cfg, handler: handler}, nil
}

// Run listens until the process receives SIGINT or SIGTERM, then drains
// in-flight requests for at most the configured shutdown timeout.
func (a *theApp) Run() error {
	listener, err := a.createListener()
	if err != nil {
		return err
	}

	// h2c lets an upstream httpd speak prior-knowledge HTTP/2 to us even
	// though this listener carries no TLS.
	server := &http.Server{
		Handler:           h2c.NewHandler(a.handler, &http2.Server{}),
		ReadTimeout:       a.config.Server.ReadTimeout,
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
		WriteTimeout:      a.config.Server.WriteTimeout,
	}

	a.listenMetrics()

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(listener)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(ctx)
	case err := <-done:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (a *theApp) listenMetrics() {
	if a.config.General.MetricsAddress == "" {
		return
	}

	go func() {
		log.WithField("listener", a.config.General.MetricsAddress).Info("metrics available")

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		if err := http.ListenAndServe(a.config.General.MetricsAddress, mux); err != nil {
			fatal(err, "could not serve metrics")
		}
	}()
}

func runApp(cfg *config.Config) {
	app, err := newApp(cfg)
	if err != nil {
		fatal(err, "could not configure caseproxy")
	}

	if err := app.Run(); err != nil {
		fatal(err, "could not serve")
	}
}
