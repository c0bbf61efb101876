package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/cleanup"
	"github.com/codebuildervaibhav/nomad-transcription/internal/handlers"
	"github.com/codebuildervaibhav/nomad-transcription/internal/logging"
	"github.com/codebuildervaibhav/nomad-transcription/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// newApp registers middleware and routes on a fresh fiber app.
func newApp(svc *services, logBuffer *logging.LogBuffer) *fiber.App {
	cfg := svc.cfg

	app := fiber.New(fiber.Config{
		// multipart framing on top of the audio itself
		BodyLimit:             (cfg.Limits.MaxFileSizeMB + 1) * 1024 * 1024,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New(logger.Config{
		Output: zap.NewStdLog(svc.logger.Named("http")).Writer(),
		Format: "${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	intake := handlers.NewIntake(svc.sessions, svc.audio, svc.dispatcher, svc.logger.Named("intake"))
	transcribeHandler := handlers.NewTranscribeHandler(svc.dispatcher)
	enginesHandler := handlers.NewEnginesHandler(svc.catalog, svc.monitor)
	uploadHandler := handlers.NewUploadHandler(intake, cfg.Limits.MaxFileSizeMB)
	streamHandler := handlers.NewStreamHandler(intake, cfg.Limits.MaxFileSizeMB)

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": version,
		})
	})

	app.Post("/transcribe/:session_id", transcribeHandler.Submit)
	app.Get("/jobs", transcribeHandler.List)
	app.Get("/jobs/:id", transcribeHandler.Get)

	app.Get("/engines/status", enginesHandler.Status)
	app.Post("/engines/wynona/wake", enginesHandler.Wake)

	app.Post("/upload", uploadHandler.Handle)
	app.Get("/ws/stream", websocket.New(streamHandler.Handle))

	app.Get("/logs", func(c *fiber.Ctx) error {
		var lines []string
		if logBuffer != nil {
			lines = logBuffer.Lines()
		}
		return c.JSON(fiber.Map{
			"logs": lines,
		})
	})

	return app
}

// runServer serves until ctx is cancelled, then drains in-flight jobs.
func runServer(ctx context.Context, svc *services, logBuffer *logging.LogBuffer) error {
	cfg := svc.cfg
	log := svc.logger

	scheduler := cleanup.NewScheduler(cfg.Storage.AudioDir, storage.PartialSuffix,
		cfg.Cleanup.IntervalMinutes, cfg.Cleanup.MaxAgeHours, log.Named("cleanup"))
	scheduler.Start()
	defer scheduler.Stop()

	app := newApp(svc, logBuffer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Addr())
	}()

	log.Info("server starting",
		zap.String("addr", cfg.Addr()),
		zap.String("storage", cfg.Storage.Backend),
		zap.Int("max_concurrent_jobs", cfg.Workers.MaxConcurrent),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("server stopped unexpectedly")
	case <-ctx.Done():
	}

	log.Info("shutting down gracefully")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	log.Info("waiting for in-flight jobs")
	svc.dispatcher.Wait()
	return nil
}
