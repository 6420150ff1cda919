package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"euphro-assets/internal/auth"
	"euphro-assets/internal/config"
	document_h "euphro-assets/internal/http-server/handler/document"
	image_h "euphro-assets/internal/http-server/handler/image"
	"euphro-assets/internal/http-server/router"
	"euphro-assets/internal/repository/euphrosyne"
	"euphro-assets/internal/repository/storage/azure"
	minio_repo "euphro-assets/internal/repository/storage/minio"
	"euphro-assets/internal/usecase/crop"
	"euphro-assets/internal/usecase/documents"
	"euphro-assets/internal/usecase/upload"

	"github.com/wb-go/wbf/zlog"
)

type App struct {
	cfg    *config.Config
	server *http.Server
	logger *zlog.Zerolog
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	core, err := minio_repo.NewCore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	fileRepo := minio_repo.NewMinIORepository(core, cfg.Storage, retries, logger)

	backendHTTP := &http.Client{Timeout: cfg.Backend.Timeout}
	issuer := auth.NewIssuer(backendHTTP, cfg.Backend.BaseURL, cfg.Auth)
	tokens := auth.NewTokenManager(auth.NewFileStore(cfg.Auth.StorePath), issuer, cfg.Auth.Leeway, logger)
	authClient := auth.NewClient(backendHTTP, tokens, logger)

	backend := euphrosyne.NewClient(authClient, cfg.Backend.BaseURL, logger)

	// SAS URLs carry their own authorization.
	share := azure.NewFileShare(&http.Client{}, cfg.Upload.StorageVersion, logger)

	engine := upload.NewEngine(cfg.Upload.ChunkSize, cfg.Upload.ChunkTimeout, logger)

	documentUsecase := documents.NewUsecase(
		backend,
		func(signedURL string) upload.Destination { return share.Destination(signedURL) },
		engine,
		cfg.Upload,
		retries,
		logger,
	)

	annotator, err := crop.NewAnnotator(cfg.Render.FontSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create annotator: %w", err)
	}
	renderer := crop.NewRenderer(
		crop.ParseFormat(cfg.Render.Format),
		cfg.Render.JPEGQuality,
		annotator,
		logger,
	)

	imageHandler := image_h.NewImageHandler(
		renderer,
		fileRepo,
		engine,
		func(objectPath, contentType string) upload.Destination {
			return fileRepo.Destination(objectPath, contentType)
		},
		logger,
	)
	documentHandler := document_h.NewDocumentHandler(documentUsecase, cfg.Upload.MaxRequestSize, logger)

	h := &router.Handler{
		ImageHandler:    imageHandler,
		DocumentHandler: documentHandler,
	}

	mux := router.SetupRouter(h)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:    cfg,
		server: server,
		logger: logger,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
