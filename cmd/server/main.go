package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"ocp-installer-helper/internal/clusterdata"
	"ocp-installer-helper/internal/config"
	"ocp-installer-helper/internal/handler"
	"ocp-installer-helper/internal/pkg/logger"
	"ocp-installer-helper/internal/pkg/metrics"
	"ocp-installer-helper/internal/pkg/shell"
	"ocp-installer-helper/internal/router"
	"ocp-installer-helper/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = appLogger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Services
	runner := shell.NewExecutor()
	commands := service.NewCommandService(cfg, runner, appLogger, m)
	clusters := service.NewClusterService(clusterdata.NewStore(cfg.Paths.DataDir), appLogger)
	mirror := service.NewMirrorService(cfg, appLogger, m)
	tasks := service.NewMirrorTaskService(cfg, runner, appLogger, m)

	handlers := router.Handlers{
		Mirror: handler.NewMirrorHandler(
			service.NewVersionService(cfg, &http.Client{Timeout: 30 * time.Second}, appLogger),
			commands,
			service.NewOperatorService(cfg, commands, appLogger),
			mirror,
			tasks,
			appLogger,
		),
		Installer: handler.NewInstallerHandler(
			clusters,
			service.NewSSHKeyService(cfg.Paths.KeyDir, appLogger),
			service.NewInstallerService(cfg, appLogger, m),
			service.NewBastionService(cfg, commands, clusters),
		),
		Form:   handler.NewFormHandler(service.NewFormService(clusters, appLogger, m)),
		Stream: handler.NewStreamHandler(tasks, cfg.Server.AllowedOrigins, appLogger),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(corsConfig))

	router.RegisterRoutes(r, handlers, reg)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	runChan := make(chan os.Signal, 1)
	signal.Notify(runChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		appLogger.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalf("Server failed to start: %v", err)
		}
	}()

	interrupt := <-runChan
	appLogger.Infof("Server is shutting down due to %v", interrupt)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Errorf("Server was unable to shut down gracefully: %v", err)
	}
}
