package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/cloud-bindings/internal/application"
	"github.com/eugenenazirov/cloud-bindings/internal/binding"
	"github.com/eugenenazirov/cloud-bindings/internal/config"
	"github.com/eugenenazirov/cloud-bindings/internal/logging"
)

var signalNotify = signal.Notify

type cliFlags struct {
	configFile     *string
	port           *string
	services       *string
	mappings       *string
	configRoot     *string
	logLevel       *string
	rateLimitRPS   *float64
	rateLimitBurst *int
}

func newCLI() (*kingpin.Application, *cliFlags, *kingpin.CmdClause, *kingpin.CmdClause) {
	app := kingpin.New("cloud-bindings", "Cloud Bindings - resolves service credentials and exposes the bound clients over HTTP")
	flags := &cliFlags{
		configFile:     app.Flag("config", "Path to YAML configuration file").String(),
		services:       app.Flag("services", "Comma-separated services to bind").String(),
		mappings:       app.Flag("mappings", "Path to the key mappings file (JSON or YAML)").String(),
		configRoot:     app.Flag("config-root", "Base directory for relative file: search patterns").String(),
		logLevel:       app.Flag("log-level", "Log level (debug, info, warn, error)").String(),
		port:           app.Flag("port", "HTTP port exposed by the service").String(),
		rateLimitRPS:   app.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64(),
		rateLimitBurst: app.Flag("rate-limit-burst", "Burst capacity for rate limiter").Default("-1").Int(),
	}

	serve := app.Command("serve", "Bind services and serve the HTTP API").Default()
	bindings := app.Command("bindings", "Resolve every enabled binding, print it, and exit")

	return app, flags, serve, bindings
}

func (f *cliFlags) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *f.configFile,
	}

	for _, s := range []struct {
		value  *string
		target **string
	}{
		{f.port, &overrides.Port},
		{f.services, &overrides.ServicesStr},
		{f.mappings, &overrides.MappingsFile},
		{f.configRoot, &overrides.ConfigRoot},
		{f.logLevel, &overrides.LogLevel},
	} {
		if *s.value != "" {
			*s.target = s.value
		}
	}

	if *f.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = f.rateLimitRPS
	}

	if *f.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = f.rateLimitBurst
	}

	return overrides
}

func main() {
	kingpinApp, flags, serveCmd, bindingsCmd := newCLI()
	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	cfg, err := config.Load(flags.overrides())
	if err != nil {
		kingpinApp.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		kingpinApp.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case bindingsCmd.FullCommand():
		if err := printBindings(cfg, logger, os.Stdout); err != nil {
			logger.Error("binding failed", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
	case serveCmd.FullCommand():
		serve(cfg, logger)
	}
}

func serve(cfg config.Config, logger *zap.Logger) {
	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

// printBindings binds every enabled service and writes one line per client.
func printBindings(cfg config.Config, logger *zap.Logger, out io.Writer) error {
	services, err := application.BindServices(cfg, logger, nil)
	if err != nil {
		return err
	}
	return writeBindings(out, services)
}

func writeBindings(out io.Writer, services *binding.Manager) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tCLIENT")
	for _, name := range services.Names() {
		client, _ := services.Get(name)
		fmt.Fprintf(tw, "%s\t%T\n", name, client)
	}
	return tw.Flush()
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.Info("shutting down server", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
