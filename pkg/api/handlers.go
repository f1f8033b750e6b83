// Package api exposes the HTTP and WebSocket surface: pose/velocity
// inspection, landmark listing, command injection, and live pose streaming.
package api

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/open-teleop/navsim/pkg/config"
	"github.com/open-teleop/navsim/pkg/geometry"
	"github.com/open-teleop/navsim/pkg/landmark"
	customlog "github.com/open-teleop/navsim/pkg/log"
	"github.com/open-teleop/navsim/pkg/sim"
)

// Simulator is the slice of the simulation loop the API needs.
type Simulator interface {
	Command(cmd sim.Twist)
	Reset(st sim.State)
	CurrentPose() geometry.PoseStamped
	CurrentState() sim.State
	CurrentVelocity() sim.Velocity
}

// API holds the handler dependencies.
type API struct {
	cfg       *config.Config
	simulator Simulator
	registry  *landmark.Registry
	hub       *Hub
	logger    customlog.Logger
	sessionID string
}

// New creates the API surface.
func New(cfg *config.Config, simulator Simulator, registry *landmark.Registry, hub *Hub, logger customlog.Logger, sessionID string) *API {
	return &API{
		cfg:       cfg,
		simulator: simulator,
		registry:  registry,
		hub:       hub,
		logger:    logger,
		sessionID: sessionID,
	}
}

// Register sets up all routes on the app.
func (a *API) Register(app *fiber.App) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "navsim",
			"robot":   a.cfg.Sim.RobotID,
		})
	})
	app.Get("/health", a.healthHandler)

	api := app.Group("/api")
	api.Get("/pose", a.poseHandler)
	api.Get("/state", a.stateHandler)
	api.Get("/velocity", a.velocityHandler)
	api.Get("/landmarks", a.landmarksHandler)
	api.Get("/config", a.configHandler)
	api.Post("/cmd_vel", a.cmdVelHandler)
	api.Post("/initialpose", a.initialPoseHandler)

	// WebSocket upgrade gate
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/pose", websocket.New(a.poseStreamHandler))
}

func (a *API) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"session": a.sessionID,
	})
}

func (a *API) poseHandler(c *fiber.Ctx) error {
	return c.JSON(a.simulator.CurrentPose())
}

func (a *API) stateHandler(c *fiber.Ctx) error {
	return c.JSON(a.simulator.CurrentState())
}

func (a *API) velocityHandler(c *fiber.Ctx) error {
	return c.JSON(a.simulator.CurrentVelocity())
}

func (a *API) landmarksHandler(c *fiber.Ctx) error {
	return c.JSON(a.registry.Landmarks())
}

func (a *API) configHandler(c *fiber.Ctx) error {
	return c.JSON(a.cfg)
}

// cmdVelHandler accepts a geometry_msgs/Twist-shaped JSON body and updates
// the commanded velocity. Fire and forget: most recent command wins.
func (a *API) cmdVelHandler(c *fiber.Ctx) error {
	var twist geometry.TwistMsg
	if err := c.BodyParser(&twist); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	a.simulator.Command(sim.Twist{V: twist.Linear.X, W: twist.Angular.Z})
	return c.JSON(fiber.Map{"status": "command received"})
}

// initialPoseHandler accepts a PoseWithCovarianceStamped-shaped JSON body
// and resets the simulated pose. The quaternion is not validated.
func (a *API) initialPoseHandler(c *fiber.Ctx) error {
	var msg geometry.PoseWithCovarianceStamped
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	pose := msg.Pose.Pose
	a.simulator.Reset(sim.State{
		X:   pose.Position.X,
		Y:   pose.Position.Y,
		Yaw: pose.Orientation.Yaw(),
	})
	return c.JSON(fiber.Map{"status": "pose reset"})
}

// poseStreamHandler streams every published pose and path to the client.
func (a *API) poseStreamHandler(conn *websocket.Conn) {
	a.logger.Infof("Pose stream connected: %s", conn.RemoteAddr())
	ch := a.hub.Subscribe()
	defer func() {
		a.hub.Unsubscribe(ch)
		a.logger.Infof("Pose stream disconnected: %s", conn.RemoteAddr())
	}()

	// Drain inbound frames so close handshakes are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-ch:
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
