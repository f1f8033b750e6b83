package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/navsim/pkg/config"
	"github.com/open-teleop/navsim/pkg/geometry"
	"github.com/open-teleop/navsim/pkg/landmark"
	"github.com/open-teleop/navsim/pkg/sim"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...interface{}) {}
func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Warnf(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}
func (nopLogger) Fatalf(format string, args ...interface{}) {}

type fakeSimulator struct {
	commands []sim.Twist
	resets   []sim.State
	pose     geometry.PoseStamped
	state    sim.State
	vel      sim.Velocity
}

func (f *fakeSimulator) Command(cmd sim.Twist)             { f.commands = append(f.commands, cmd) }
func (f *fakeSimulator) Reset(st sim.State)                { f.resets = append(f.resets, st) }
func (f *fakeSimulator) CurrentPose() geometry.PoseStamped { return f.pose }
func (f *fakeSimulator) CurrentState() sim.State           { return f.state }
func (f *fakeSimulator) CurrentVelocity() sim.Velocity     { return f.vel }

func testApp(fake *fakeSimulator) *fiber.App {
	cfg := config.Default()
	reg := landmark.NewRegistry(
		landmark.Landmark{ID: "lm_a", X: 3, Y: 4},
		landmark.Landmark{ID: "lm_b", X: -1, Y: 2},
	)
	app := fiber.New()
	New(&cfg, fake, reg, NewHub(nopLogger{}), nopLogger{}, "session-1").Register(app)
	return app
}

func TestHealthEndpoint(t *testing.T) {
	app := testApp(&fakeSimulator{})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "session-1", body["session"])
}

func TestPoseEndpoint(t *testing.T) {
	fake := &fakeSimulator{
		pose: geometry.PoseStamped{
			Header: geometry.Header{FrameID: "base_link"},
			Pose:   geometry.PoseFromPlanar(1, 2, 0),
		},
	}
	app := testApp(fake)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/pose", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var pose geometry.PoseStamped
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pose))
	assert.Equal(t, "base_link", pose.Header.FrameID)
	assert.Equal(t, 1.0, pose.Pose.Position.X)
	assert.Equal(t, 2.0, pose.Pose.Position.Y)
}

func TestLandmarksEndpoint(t *testing.T) {
	app := testApp(&fakeSimulator{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/landmarks", nil))
	require.NoError(t, err)

	var lms []landmark.Landmark
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lms))
	require.Len(t, lms, 2)
	assert.Equal(t, "lm_a", lms[0].ID)
	assert.Equal(t, "lm_b", lms[1].ID)
}

func TestCmdVelEndpoint(t *testing.T) {
	fake := &fakeSimulator{}
	app := testApp(fake)

	body, _ := json.Marshal(geometry.TwistMsg{
		Linear:  geometry.Vector3{X: 0.8},
		Angular: geometry.Vector3{Z: -0.2},
	})
	req := httptest.NewRequest("POST", "/api/cmd_vel", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, fake.commands, 1)
	assert.Equal(t, sim.Twist{V: 0.8, W: -0.2}, fake.commands[0])
}

func TestCmdVelEndpointRejectsMalformedBody(t *testing.T) {
	fake := &fakeSimulator{}
	app := testApp(fake)

	req := httptest.NewRequest("POST", "/api/cmd_vel", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, fake.commands)
}

func TestInitialPoseEndpoint(t *testing.T) {
	fake := &fakeSimulator{}
	app := testApp(fake)

	body, _ := json.Marshal(geometry.PoseWithCovarianceStamped{
		Pose: geometry.PoseWithCovariance{
			Pose: geometry.PoseFromPlanar(5, 6, 0),
		},
	})
	req := httptest.NewRequest("POST", "/api/initialpose", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, fake.resets, 1)
	assert.Equal(t, 5.0, fake.resets[0].X)
	assert.Equal(t, 6.0, fake.resets[0].Y)
	assert.InDelta(t, 0.0, fake.resets[0].Yaw, 1e-12)
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub(nopLogger{})
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer+5; i++ {
		require.NoError(t, hub.PublishPose(geometry.PoseStamped{}))
	}
	// The buffer absorbed what it could; the rest were dropped, not queued.
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubBroadcastFrame(t *testing.T) {
	hub := NewHub(nopLogger{})
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	require.NoError(t, hub.PublishPath(geometry.Path{Header: geometry.Header{FrameID: "base_link"}}))

	var msg StreamMessage
	require.NoError(t, json.Unmarshal(<-ch, &msg))
	assert.Equal(t, "path", msg.Type)
}
