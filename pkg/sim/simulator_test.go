package sim

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-teleop/navsim/pkg/geometry"
	"github.com/open-teleop/navsim/pkg/landmark"
)

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...interface{}) {}
func (nopLogger) Infof(format string, args ...interface{})  {}
func (nopLogger) Warnf(format string, args ...interface{})  {}
func (nopLogger) Errorf(format string, args ...interface{}) {}
func (nopLogger) Fatalf(format string, args ...interface{}) {}

// fakeClock drives Run deterministically: the test advances time and pushes
// tick instants by hand.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	ch  chan time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start, ch: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(period time.Duration) Ticker {
	return c
}

func (c *fakeClock) C() <-chan time.Time { return c.ch }
func (c *fakeClock) Stop()               {}

// advanceTo moves the clock and fires a tick at the new time.
func (c *fakeClock) advanceTo(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
	c.ch <- t
}

// capturePublisher records everything the loop emits.
type capturePublisher struct {
	mu         sync.Mutex
	poses      []geometry.PoseStamped
	paths      []geometry.Path
	transforms []geometry.TransformStamped
}

func (p *capturePublisher) PublishPose(pose geometry.PoseStamped) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.poses = append(p.poses, pose)
	return nil
}

func (p *capturePublisher) PublishPath(path geometry.Path) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	return nil
}

func (p *capturePublisher) PublishTransform(tf geometry.TransformStamped) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transforms = append(p.transforms, tf)
	return nil
}

func (p *capturePublisher) snapshot() (poses []geometry.PoseStamped, paths []geometry.Path, tfs []geometry.TransformStamped) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]geometry.PoseStamped(nil), p.poses...),
		append([]geometry.Path(nil), p.paths...),
		append([]geometry.TransformStamped(nil), p.transforms...)
}

func testRegistry() *landmark.Registry {
	return landmark.NewRegistry(
		landmark.Landmark{ID: "lm_a", X: 3, Y: 4},
		landmark.Landmark{ID: "lm_b", X: -1, Y: 0},
		landmark.Landmark{ID: "lm_c", X: 0, Y: 2},
	)
}

func TestTickPathOrderingAndFrames(t *testing.T) {
	pub := &capturePublisher{}
	s := New(Config{RobotID: "robot-1"}, testRegistry(), NewErrorModel(0), nopLogger{}, pub)

	t0 := time.Unix(1000, 0)
	s.SetClock(newFakeClock(t0.Add(time.Second)))
	s.prev = t0
	s.vel = Velocity{V: 1, W: 0}

	s.tick(t0.Add(time.Second))

	poses, paths, tfs := pub.snapshot()
	require.Len(t, poses, 1)
	require.Len(t, paths, 1)
	// One broadcast for the robot plus one per landmark.
	require.Len(t, tfs, 4)

	assert.Equal(t, "base_link", poses[0].Header.FrameID)
	assert.InDelta(t, 1.0, poses[0].Pose.Position.X, 1e-12)
	assert.InDelta(t, 0.0, poses[0].Pose.Position.Y, 1e-12)

	// Two points per landmark, robot origin first, registry order preserved.
	require.Len(t, paths[0].Poses, 6)
	assert.Equal(t, 0.0, paths[0].Poses[0].Pose.Position.X)
	assert.Equal(t, 0.0, paths[0].Poses[0].Pose.Position.Y)
	assert.InDelta(t, 2.0, paths[0].Poses[1].Pose.Position.X, 1e-9) // lm_a seen from (1,0)
	assert.InDelta(t, 4.0, paths[0].Poses[1].Pose.Position.Y, 1e-9)
	assert.InDelta(t, -2.0, paths[0].Poses[3].Pose.Position.X, 1e-9) // lm_b
	assert.InDelta(t, -1.0, paths[0].Poses[5].Pose.Position.X, 1e-9) // lm_c
	assert.InDelta(t, 2.0, paths[0].Poses[5].Pose.Position.Y, 1e-9)

	assert.Equal(t, "map", tfs[0].Header.FrameID)
	assert.Equal(t, "base_link", tfs[0].ChildFrameID)
	assert.Equal(t, "lm_a", tfs[1].ChildFrameID)
	assert.Equal(t, "lm_b", tfs[2].ChildFrameID)
	assert.Equal(t, "lm_c", tfs[3].ChildFrameID)
	assert.InDelta(t, 3.0, tfs[1].Transform.Translation.X, 1e-12)
	assert.InDelta(t, 4.0, tfs[1].Transform.Translation.Y, 1e-12)
}

func TestTickRotatedRobotRelativePoint(t *testing.T) {
	pub := &capturePublisher{}
	reg := landmark.NewRegistry(landmark.Landmark{ID: "ahead", X: 1, Y: 2})
	s := New(Config{}, reg, NewErrorModel(0), nopLogger{}, pub)

	t0 := time.Unix(0, 0)
	s.SetClock(newFakeClock(t0))
	s.prev = t0
	s.state = State{X: 1, Y: 1, Yaw: math.Pi / 2}

	// Zero velocity, zero dt: state stays put, outputs still emitted.
	s.tick(t0)

	_, paths, _ := pub.snapshot()
	require.Len(t, paths, 1)
	require.Len(t, paths[0].Poses, 2)
	assert.InDelta(t, 1.0, paths[0].Poses[1].Pose.Position.X, 1e-9)
	assert.InDelta(t, 0.0, paths[0].Poses[1].Pose.Position.Y, 1e-9)
}

func TestTickVelocityUpdateUsesPreIntegrationVelocity(t *testing.T) {
	s := New(Config{}, landmark.NewRegistry(), NewErrorModel(0), nopLogger{})

	t0 := time.Unix(0, 0)
	s.SetClock(newFakeClock(t0))
	s.prev = t0
	s.Command(Twist{V: 2, W: 0})

	// Deliver the pending command the way the loop would.
	s.cmd = <-s.cmdCh

	for i := 1; i <= 10; i++ {
		s.tick(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}

	vel := s.CurrentVelocity()
	// v_n = 2 * (1 - 0.9^n) after n ticks of dt=0.1 with Kp=1.
	assert.InDelta(t, 2.0*(1.0-math.Pow(0.9, 10)), vel.V, 1e-9)
	assert.Less(t, vel.V, 2.0)
}

func TestCommandLatestWins(t *testing.T) {
	s := New(Config{}, landmark.NewRegistry(), NewErrorModel(0), nopLogger{})

	s.Command(Twist{V: 1})
	s.Command(Twist{V: 2})
	s.Command(Twist{V: 3})

	got := <-s.cmdCh
	assert.Equal(t, Twist{V: 3}, got)

	select {
	case extra := <-s.cmdCh:
		t.Fatalf("expected no queued commands, got %+v", extra)
	default:
	}
}

func TestResetLeavesVelocityUntouched(t *testing.T) {
	s := New(Config{}, landmark.NewRegistry(), NewErrorModel(0), nopLogger{})
	s.vel = Velocity{V: 1.5, W: -0.5}

	s.applyReset(State{X: 5, Y: 6, Yaw: 0.1})

	assert.Equal(t, State{X: 5, Y: 6, Yaw: 0.1}, s.CurrentState())
	assert.Equal(t, Velocity{V: 1.5, W: -0.5}, s.CurrentVelocity())
}

func TestRunLoopAppliesResetsBetweenTicks(t *testing.T) {
	pub := &capturePublisher{}
	s := New(Config{}, landmark.NewRegistry(), NewErrorModel(0), nopLogger{}, pub)

	t0 := time.Unix(2000, 0)
	clock := newFakeClock(t0)
	s.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx)
	}()

	// First tick 10ms after the loop recorded its baseline.
	clock.advanceTo(t0.Add(10 * time.Millisecond))

	s.Reset(State{X: 5, Y: 6, Yaw: 0})
	// The reset and the next tick are serialized by the loop goroutine; with
	// zero velocity and zero error the published pose must be exactly the
	// reset, never a torn mix. Wait for the loop to drain the reset before
	// firing the next tick.
	require.Eventually(t, func() bool {
		return s.CurrentState() == State{X: 5, Y: 6, Yaw: 0}
	}, time.Second, time.Millisecond)
	clock.advanceTo(t0.Add(20 * time.Millisecond))

	require.Eventually(t, func() bool {
		poses, _, _ := pub.snapshot()
		return len(poses) >= 2
	}, time.Second, time.Millisecond)

	poses, _, _ := pub.snapshot()
	last := poses[len(poses)-1]
	assert.Equal(t, 5.0, last.Pose.Position.X)
	assert.Equal(t, 6.0, last.Pose.Position.Y)

	cancel()
	<-done
}
