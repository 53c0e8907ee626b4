package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/dsh-elg/internal/annotator"
	"github.com/phrazzld/dsh-elg/internal/config"
	"github.com/phrazzld/dsh-elg/internal/platform/gemini"
	"github.com/phrazzld/dsh-elg/internal/platform/lexicon"
	"github.com/phrazzld/dsh-elg/internal/platform/remote"
	"github.com/phrazzld/dsh-elg/internal/service"
)

// application holds the dependencies shared by every request. Nothing in it
// is mutated after newApplication returns.
type application struct {
	config *config.Config
	logger *slog.Logger

	annotationService service.AnnotationService
}

// newApplication creates the engine factory selected by the configuration
// and the annotation service on top of it.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	factory, err := newEngineFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s engine: %w", cfg.Annotator.Engine, err)
	}

	svc, err := service.NewAnnotationService(
		factory,
		service.FeatureShape(cfg.Annotator.FeatureShape),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create annotation service: %w", err)
	}

	logger.Info("Application initialized successfully",
		slog.String("engine", cfg.Annotator.Engine))

	return &application{
		config:            cfg,
		logger:            logger,
		annotationService: svc,
	}, nil
}

// newEngineFactory returns a factory that builds a fresh engine for every request.
func newEngineFactory(cfg *config.Config, logger *slog.Logger) (annotator.Factory, error) {
	switch cfg.Annotator.Engine {
	case config.EngineLexicon:
		return func(context.Context) (annotator.Engine, error) {
			return lexicon.NewDefault(), nil
		}, nil

	case config.EngineRemote:
		// Fail at startup rather than on the first request.
		if _, err := remote.New(cfg.Remote); err != nil {
			return nil, err
		}
		remoteCfg := cfg.Remote
		return func(context.Context) (annotator.Engine, error) {
			return remote.New(remoteCfg)
		}, nil

	case config.EngineGemini:
		return gemini.NewFactory(logger, cfg.LLM)

	default:
		return nil, fmt.Errorf("%w: unknown engine %q", annotator.ErrInvalidConfig, cfg.Annotator.Engine)
	}
}

// Run serves HTTP until ctx is done.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
