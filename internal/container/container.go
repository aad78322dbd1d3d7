package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/body-measure-go/internal/analyzer"
	"github.com/anime-shed/body-measure-go/internal/config"
	"github.com/anime-shed/body-measure-go/internal/convergence"
	"github.com/anime-shed/body-measure-go/internal/factory"
	"github.com/anime-shed/body-measure-go/internal/logger"
	"github.com/anime-shed/body-measure-go/internal/observer"
	"github.com/anime-shed/body-measure-go/internal/repository"
	"github.com/anime-shed/body-measure-go/internal/service"
	"github.com/anime-shed/body-measure-go/internal/transport"
	"github.com/anime-shed/body-measure-go/pkg/services"
	"github.com/anime-shed/body-measure-go/pkg/sizing"
	"github.com/anime-shed/body-measure-go/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	chart              *sizing.Chart
	resultRepository   repository.ResultRepository
	metrics            *observer.MetricsObserver
	measurementService service.MeasurementService
	handler            http.Handler
}

// NewContainer creates a new dependency injection container. The size
// chart is fetched once here; failure to load it is fatal to startup.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory()

	fetcher, err := components.StorageFactory.CreateChartFetcher(factory.StorageType(cfg.ChartSource), factory.StorageSettings{
		FetchTimeout: cfg.ChartFetchTimeout,
		AzureAccount: cfg.AzureAccount,
		AzureKey:     cfg.AzureKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chart source: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.ChartFetchTimeout)
	defer cancel()
	chart, err := fetcher.FetchChart(fetchCtx, cfg.ChartLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to load size chart from %s: %w", cfg.ChartSource, err)
	}
	logger.WithFields(logrus.Fields{
		"source": cfg.ChartSource,
		"sizes":  len(chart.Ranges()),
	}).Info("Size chart loaded")

	extractor, err := analyzer.NewExtractor(cfg.AnalyzerOptions(), chart)
	if err != nil {
		return nil, err
	}

	machine, err := components.MachineFactory.CreateMachine(convergence.LockMode(cfg.LockMode), cfg.ConvergenceConfig(), chart)
	if err != nil {
		return nil, err
	}

	results, err := newResultRepository(cfg)
	if err != nil {
		return nil, err
	}

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	measurementService, err := service.NewMeasurementService(service.Dependencies{
		Extractor:   extractor,
		Machine:     machine,
		Chart:       chart,
		Validator:   validation.NewFrameValidator(),
		Reports:     services.NewReportService(chart),
		Results:     results,
		Events:      events,
		ToleranceCm: cfg.ClassificationToleranceCm,
		IdleTimeout: cfg.SessionIdleTimeout,
	})
	if err != nil {
		results.Close()
		return nil, err
	}

	handler := transport.NewHandler(measurementService, metrics, cfg)

	return &Container{
		config:             cfg,
		chart:              chart,
		resultRepository:   results,
		metrics:            metrics,
		measurementService: measurementService,
		handler:            handler,
	}, nil
}

func newResultRepository(cfg *config.Config) (repository.ResultRepository, error) {
	switch cfg.ResultStore {
	case "sqlite":
		repo, err := repository.NewSQLiteResultRepository(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open result store: %w", err)
		}
		return repo, nil
	case "memory", "":
		return repository.NewMemoryResultRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported result store: %s", cfg.ResultStore)
	}
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the measurement service
func (c *Container) Service() service.MeasurementService {
	return c.measurementService
}

// Chart returns the loaded size chart
func (c *Container) Chart() *sizing.Chart {
	return c.chart
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the result store
func (c *Container) Close() error {
	return c.resultRepository.Close()
}
