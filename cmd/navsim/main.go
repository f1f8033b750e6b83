package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/pebbe/zmq4"

	"github.com/open-teleop/navsim/pkg/api"
	"github.com/open-teleop/navsim/pkg/config"
	"github.com/open-teleop/navsim/pkg/landmark"
	customlog "github.com/open-teleop/navsim/pkg/log"
	"github.com/open-teleop/navsim/pkg/mqtt"
	"github.com/open-teleop/navsim/pkg/sim"
	"github.com/open-teleop/navsim/pkg/zeromq"
)

func main() {
	configPath := flag.String("config", "config/navsim.yaml", "path to the navsim configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "navsim: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := customlog.NewLogrusLogger(cfg.Logging.Level, cfg.Logging.LogPath)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	sessionID := uuid.NewString()
	logger.Infof("Starting navsim (session %s)", sessionID)

	// Landmark registry: any malformed entry is fatal, the loop never starts.
	registry, err := landmark.Load(cfg.Sim.LandmarkConfig)
	if err != nil {
		return fmt.Errorf("failed to load landmarks: %w", err)
	}
	logger.Infof("Loaded %d landmarks from %s", registry.Len(), cfg.Sim.LandmarkConfig)

	zmqCtx, err := zmq4.NewContext()
	if err != nil {
		return fmt.Errorf("failed to create ZeroMQ context: %w", err)
	}
	defer zmqCtx.Term()

	zmqPub, err := zeromq.NewPublisher(zmqCtx, cfg.ZeroMQ.PublishBindAddress, logger)
	if err != nil {
		return err
	}
	defer zmqPub.Close()

	hub := api.NewHub(logger)

	publishers := []sim.Publisher{zmqPub, hub}

	mqttPub, err := mqtt.NewPublisher(cfg.MQTT, logger)
	if err != nil {
		return fmt.Errorf("failed to create MQTT publisher: %w", err)
	}
	if mqttPub != nil {
		defer mqttPub.Close()
		publishers = append(publishers, mqttPub)
	}

	simulator := sim.New(sim.Config{
		RobotID:    cfg.Sim.RobotID,
		MapFrame:   cfg.Sim.MapFrame,
		BaseFrame:  cfg.Sim.BaseFrame,
		TickPeriod: cfg.Sim.TickPeriod(),
	}, registry, sim.NewErrorModel(cfg.Sim.ErrorCoeff), logger, publishers...)

	// Inbound command transport.
	dispatcher := zeromq.NewDispatcher(logger)
	zeromq.RegisterCommandHandlers(dispatcher, simulator, logger)

	listener, err := zeromq.NewCommandListener(zmqCtx, cfg.ZeroMQ.CommandBindAddress, dispatcher, logger)
	if err != nil {
		return err
	}
	listener.Start()
	defer listener.Stop()

	// HTTP/WebSocket surface.
	app := fiber.New(fiber.Config{
		AppName:      "navsim",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	api.New(cfg, simulator, registry, hub, logger, sessionID).Register(app)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go simulator.Run(ctx)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
		logger.Infof("HTTP server listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Errorf("HTTP server forced to shutdown: %v", err)
	}

	logger.Infof("navsim exited")
	return nil
}

// errorHandler returns JSON errors for the HTTP surface.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
