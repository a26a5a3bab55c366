package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/dialecticlabs/dialectic-worker/config"
	"github.com/dialecticlabs/dialectic-worker/internal/adapters/modelgateway"
	"github.com/dialecticlabs/dialectic-worker/internal/adapters/redisnotify"
	"github.com/dialecticlabs/dialectic-worker/internal/adapters/storage"
	"github.com/dialecticlabs/dialectic-worker/internal/core"
	"github.com/dialecticlabs/dialectic-worker/internal/data"
	"github.com/dialecticlabs/dialectic-worker/internal/domain/chain"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/notify"
	"github.com/dialecticlabs/dialectic-worker/internal/observability/statsd"
	"github.com/dialecticlabs/dialectic-worker/internal/service"
	"github.com/dialecticlabs/dialectic-worker/internal/worker"
)

// ServiceDeps carries the shared infrastructure the dispatcher is wired
// from.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Metrics     statsd.Sink
	Logger      *slog.Logger
}

// BuildDispatcher assembles the full processing graph: repositories,
// adapters, the execute and render processors, and the dispatch loop on top.
func BuildDispatcher(deps *ServiceDeps) (*worker.Dispatcher, error) {
	cfg := deps.Config
	logger := deps.Logger
	metrics := deps.Metrics
	if metrics == nil {
		metrics = statsd.NopSink{}
	}

	jobs := data.NewJobRepo(deps.DB, data.JobRepoConfig{Logger: logger})
	contributions := data.NewContributionRepo(deps.DB, data.ContributionRepoConfig{Logger: logger})

	var notifier notify.LifecycleNotifier = notify.NopNotifier{}
	if deps.RedisClient != nil {
		n, err := redisnotify.NewNotifier(deps.RedisClient, logger)
		if err != nil {
			return nil, fmt.Errorf("build redis notifier: %w", err)
		}
		notifier = n
	}

	files, err := storage.NewStore(storage.Options{
		Endpoint:   cfg.Storage.Endpoint,
		ServiceKey: cfg.Storage.ServiceKey,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build file store: %w", err)
	}

	gateway, err := modelgateway.NewGateway(modelgateway.Options{
		BaseURL:    cfg.Gateway.BaseURL,
		ServiceKey: cfg.Gateway.ServiceKey,
		HTTPClient: &http.Client{Timeout: cfg.Gateway.Timeout},
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build model gateway: %w", err)
	}

	registrar, err := service.NewFileRegistry(service.FileRegistryOptions{
		Files:         files,
		Contributions: contributions,
		Bucket:        cfg.Storage.Bucket,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build file registry: %w", err)
	}

	chains, err := chain.NewResolver(contributions, logger)
	if err != nil {
		return nil, fmt.Errorf("build chain resolver: %w", err)
	}

	assembler, err := service.NewDocumentAssembler(service.DocumentAssemblerOptions{
		Chains:    chains,
		Files:     files,
		Registrar: registrar,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build document assembler: %w", err)
	}

	templates := service.NewStaticTemplateRegistry()
	if cfg.Worker.TemplateDir != "" {
		if err := loadTemplates(templates, cfg.Worker.TemplateDir, cfg.Worker.TemplateDomain, logger); err != nil {
			return nil, fmt.Errorf("load templates: %w", err)
		}
	}

	renderer, err := service.NewDocumentRenderer(service.DocumentRendererOptions{
		Templates: templates,
		Chains:    chains,
		Files:     files,
		Registrar: registrar,
		Domain:    cfg.Worker.TemplateDomain,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build document renderer: %w", err)
	}

	renderProcessor, err := service.NewRenderJobProcessor(service.RenderJobProcessorOptions{
		Jobs:     jobs,
		Renderer: renderer,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build render job processor: %w", err)
	}

	prompts, err := service.NewStagePromptAssembler(service.StagePromptAssemblerOptions{
		Contributions: contributions,
		Files:         files,
		Bucket:        cfg.Storage.Bucket,
		Models:        gateway,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build prompt assembler: %w", err)
	}

	continuations, err := service.NewContinuationController(service.ContinuationControllerOptions{
		Jobs:   jobs,
		Policy: service.NewContinuationPolicy(cfg.Worker.MaxContinuationDepth),
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build continuation controller: %w", err)
	}

	retries, err := service.NewRetryController(service.RetryControllerOptions{
		Jobs:     jobs,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build retry controller: %w", err)
	}

	executor, err := service.NewModelCallExecutor(service.ModelCallExecutorOptions{
		Jobs:          jobs,
		Contributions: contributions,
		Files:         files,
		Registrar:     registrar,
		Models:        gateway,
		Caller:        gateway,
		Tokens:        gateway,
		Compressor:    gateway,
		Prompts:       prompts,
		Continuations: continuations,
		Retries:       retries,
		Policy:        service.NewOutputTypePolicy(cfg.Worker.JSONOnlyOutputTypes),
		Assembler:     assembler,
		Notifier:      notifier,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build model call executor: %w", err)
	}

	return worker.NewDispatcher(worker.DispatcherOptions{
		Jobs:         jobs,
		Executor:     executor,
		Renderer:     renderProcessor,
		Concurrency:  cfg.Worker.Concurrency,
		PollInterval: cfg.Worker.PollInterval,
		JobTimeout:   cfg.Worker.JobTimeout,
		Metrics:      metrics,
		Logger:       logger,
	})
}

// BuildReaper assembles the stale-job reaper over the job repository. It
// runs alongside the dispatcher and returns abandoned processing rows to the
// queue.
func BuildReaper(deps *ServiceDeps) (*service.JobReaper, error) {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = statsd.NopSink{}
	}
	return service.NewJobReaper(service.JobReaperOptions{
		Repo:      data.NewJobRepo(deps.DB, data.JobRepoConfig{Logger: deps.Logger}),
		Interval:  deps.Config.Reaper.Interval,
		Staleness: deps.Config.Reaper.Staleness,
		BatchSize: deps.Config.Reaper.BatchSize,
		Metrics:   metrics,
		Logger:    deps.Logger,
	})
}

// NewMetrics builds the StatsD sink, falling back to a no-op when metrics
// are disabled.
//
//nolint:ireturn // the sink interface keeps the no-op fallback transparent to callers.
func NewMetrics(cfg config.ObservabilityMetricsConfig, logger *slog.Logger) (statsd.Sink, func() error, error) {
	if !cfg.IsEnabled() {
		return statsd.NopSink{}, func() error { return nil }, nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.StatsdAddress,
		Prefix:  cfg.StatsdPrefix,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build statsd client: %w", err)
	}
	return client, client.Close, nil
}

// loadTemplates walks {dir}/{stage}/{filename} and registers each file under
// its stage and filename. A missing template directory is not fatal; render
// jobs against it will fail with NotFound instead.
func loadTemplates(registry *service.StaticTemplateRegistry, dir, domain string, logger *slog.Logger) error {
	stages, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if logger != nil {
				logger.Warn("template directory missing", "dir", dir)
			}
			return nil
		}
		return err
	}

	for _, stage := range stages {
		if !stage.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, stage.Name()))
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			body, err := os.ReadFile(filepath.Join(dir, stage.Name(), f.Name()))
			if err != nil {
				return err
			}
			registry.Register(stage.Name(), f.Name(), domain, &core.Template{
				Name: f.Name(),
				Body: body,
			})
		}
	}
	return nil
}
