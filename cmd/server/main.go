package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"mingle/internal/bootstrap"
	"mingle/internal/server"
)

func main() {
	ctx := context.Background()

	rt, err := bootstrap.Init(ctx)
	if err != nil {
		slog.Error("startup failed", "error", err)
		os.Exit(1)
	}

	srv, err := server.NewServer(rt.Config, rt.DB, rt.Redis)
	if err != nil {
		slog.Error("server wiring failed", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:   "mingle",
		BodyLimit: rt.Config.MaxUploadBytes() + 1024*1024,
	})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	go func() {
		if err := app.Listen(":" + rt.Config.Port); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()
	slog.Info("server listening", "port", rt.Config.Port, "env", rt.Config.AppEnv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Warn("http shutdown failed", "error", err)
	}
	rt.Shutdown(shutdownCtx)
}
