package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncw/swift/v2"
	"github.com/watson-developer-cloud/go-sdk/v2/texttospeechv1"
	"go.uber.org/zap"

	"github.com/eugenenazirov/cloud-bindings/internal/api"
	"github.com/eugenenazirov/cloud-bindings/internal/binding"
	"github.com/eugenenazirov/cloud-bindings/internal/cloudenv"
	"github.com/eugenenazirov/cloud-bindings/internal/config"
	"github.com/eugenenazirov/cloud-bindings/internal/httpclient"
	"github.com/eugenenazirov/cloud-bindings/internal/metrics"
	"github.com/eugenenazirov/cloud-bindings/internal/services/conversation"
	"github.com/eugenenazirov/cloud-bindings/internal/services/instrumentanalytics"
	"github.com/eugenenazirov/cloud-bindings/internal/services/languagetranslator"
	"github.com/eugenenazirov/cloud-bindings/internal/services/objectstorage"
	"github.com/eugenenazirov/cloud-bindings/internal/services/texttospeech"
)

// ErrUnknownService is returned when a configured service has no factory.
var ErrUnknownService = errors.New("unknown service")

// Catalog maps every supported service name to its factory.
func Catalog() map[string]binding.Named {
	named := []binding.Named{
		{Name: objectstorage.ServiceName, Factory: objectstorage.GetService},
		{Name: texttospeech.ServiceName, Factory: texttospeech.GetService},
		{Name: conversation.ServiceName, Factory: conversation.GetService},
		{Name: languagetranslator.ServiceName, Factory: languagetranslator.GetService},
		{Name: instrumentanalytics.Historical.ServiceName, Factory: instrumentanalytics.Historical.GetService},
		{Name: instrumentanalytics.Simulated.ServiceName, Factory: instrumentanalytics.Simulated.GetService},
	}

	catalog := make(map[string]binding.Named, len(named))
	for _, n := range named {
		catalog[n.Name] = n
	}
	return catalog
}

// Factories returns the factories for names, in order.
func Factories(names []string) ([]binding.Named, error) {
	catalog := Catalog()
	factories := make([]binding.Named, 0, len(names))
	for _, name := range names {
		named, ok := catalog[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownService, name)
		}
		factories = append(factories, named)
	}
	return factories, nil
}

// LoadEnv builds the configuration provider: fixed bindings from the config
// file first, then the search patterns of the mappings file.
func LoadEnv(cfg config.Config) (cloudenv.Provider, error) {
	path, err := resolveMappingsFile(cfg.MappingsFile)
	if err != nil {
		return nil, err
	}

	env, err := cloudenv.Load(path, cloudenv.Options{Root: cfg.ConfigRoot})
	if err != nil {
		return nil, fmt.Errorf("load mappings %s: %w", path, err)
	}

	return cloudenv.Chain{cloudenv.Static(cfg.Bindings), env}, nil
}

// NewHTTPClient builds the outbound client shared by every service SDK.
func NewHTTPClient(cfg config.Config, logger *zap.Logger) *http.Client {
	return httpclient.New(
		httpclient.WithTimeout(cfg.HTTPTimeout),
		httpclient.WithRetry(cfg.HTTPMaxRetries),
		httpclient.WithCircuitBreaker(cfg.HTTPCircuitBreaker, 0),
		httpclient.WithLogger(logger),
	)
}

// BindServices resolves every configured service into a registry.
func BindServices(cfg config.Config, logger *zap.Logger, m *metrics.Metrics) (*binding.Manager, error) {
	factories, err := Factories(cfg.Services)
	if err != nil {
		return nil, err
	}

	env, err := LoadEnv(cfg)
	if err != nil {
		return nil, err
	}

	deps := binding.Deps{
		HTTPClient: NewHTTPClient(cfg, logger),
		Logger:     logger,
	}
	return binding.Bind(env, deps, binding.Options{
		Lenient: !cfg.RequireAllServices,
		Metrics: m,
	}, factories...)
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	services *binding.Manager
	metrics  *metrics.Metrics
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	m := metrics.New()

	services, err := BindServices(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("failed to bind services: %w", err)
	}

	handler := api.NewHandler(services, adapterOptions(services, logger)...)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMetrics(m),
	)

	return &App{
		services: services,
		metrics:  m,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, apiRouter),
	}, nil
}

// adapterOptions enables the API endpoints whose backing service is bound.
func adapterOptions(services *binding.Manager, logger *zap.Logger) []api.HandlerOption {
	var opts []api.HandlerOption

	if tts, err := binding.Lookup[*texttospeechv1.TextToSpeechV1](services, texttospeech.ServiceName); err == nil {
		opts = append(opts, api.WithSynthesizer(texttospeech.NewSynthesizer(tts)))
	} else if !errors.Is(err, binding.ErrNotBound) {
		logger.Warn("text to speech endpoint disabled", zap.Error(err))
	}

	if conn, err := binding.Lookup[*swift.Connection](services, objectstorage.ServiceName); err == nil {
		opts = append(opts, api.WithContainerLister(objectstorage.NewContainers(conn)))
	} else if !errors.Is(err, binding.ErrNotBound) {
		logger.Warn("object storage endpoint disabled", zap.Error(err))
	}

	return opts
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Strings("services", a.services.Names()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Services returns the registry of bound clients.
func (a *App) Services() *binding.Manager {
	return a.services
}

// resolveMappingsFile returns path as-is when it exists, otherwise looks for
// a relative path in the parent directories.
func resolveMappingsFile(path string) (string, error) {
	if _, err := os.Stat(path); err == nil || filepath.IsAbs(path) {
		return path, nil
	}
	return resolveProjectPath(path)
}

// resolveProjectPath locates a file or directory relative to the project root by walking up the directory tree.
func resolveProjectPath(relative string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, relative)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("unable to locate %s", relative)
}
