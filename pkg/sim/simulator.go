package sim

import (
	"context"
	"sync"
	"time"

	"github.com/open-teleop/navsim/pkg/geometry"
	"github.com/open-teleop/navsim/pkg/landmark"
	customlog "github.com/open-teleop/navsim/pkg/log"
)

// DefaultTickPeriod is the loop period when none is configured (100 Hz).
const DefaultTickPeriod = 10 * time.Millisecond

// Config holds the simulator's identity and timing settings.
type Config struct {
	RobotID    string
	MapFrame   string
	BaseFrame  string
	TickPeriod time.Duration
}

// Simulator owns the simulated robot state and runs the per-tick loop.
// State and Velocity are written only by the loop goroutine; commands and
// pose resets arrive over input channels and are applied between ticks, so a
// reset can never interleave with an in-progress tick.
type Simulator struct {
	cfg       Config
	landmarks []landmark.Landmark
	errModel  *ErrorModel
	clock     Clock
	logger    customlog.Logger

	publishers []Publisher

	cmdCh   chan Twist
	resetCh chan State

	mu       sync.Mutex
	state    State
	vel      Velocity
	cmd      Twist
	lastPose geometry.PoseStamped
	prev     time.Time
}

// New creates a simulator. Publishers receive every tick's outputs; the
// slice may be empty (the loop still runs, useful in tests).
func New(cfg Config, registry *landmark.Registry, errModel *ErrorModel, logger customlog.Logger, publishers ...Publisher) *Simulator {
	if cfg.MapFrame == "" {
		cfg.MapFrame = "map"
	}
	if cfg.BaseFrame == "" {
		cfg.BaseFrame = "base_link"
	}
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	return &Simulator{
		cfg:        cfg,
		landmarks:  registry.Landmarks(),
		errModel:   errModel,
		clock:      SystemClock{},
		logger:     logger,
		publishers: publishers,
		cmdCh:      make(chan Twist, 1),
		resetCh:    make(chan State, 1),
	}
}

// SetClock replaces the wall clock. Call before Run.
func (s *Simulator) SetClock(c Clock) {
	s.clock = c
}

// Command sets the commanded velocity target. Most recent write wins; a
// pending unread command is discarded, never queued.
func (s *Simulator) Command(cmd Twist) {
	for {
		select {
		case s.cmdCh <- cmd:
			return
		default:
		}
		select {
		case <-s.cmdCh:
		default:
		}
	}
}

// Reset overwrites the robot pose. Tracked velocity is deliberately left
// untouched. Most recent write wins.
func (s *Simulator) Reset(st State) {
	for {
		select {
		case s.resetCh <- st:
			return
		default:
		}
		select {
		case <-s.resetCh:
		default:
		}
	}
}

// CurrentPose returns the pose published on the most recent tick.
func (s *Simulator) CurrentPose() geometry.PoseStamped {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPose
}

// CurrentState returns a snapshot of the raw simulated state.
func (s *Simulator) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentVelocity returns a snapshot of the tracked velocity.
func (s *Simulator) CurrentVelocity() Velocity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vel
}

// Run drives the loop until the context is cancelled. The previous-tick
// baseline is recorded here, before the first tick, so the first sampling
// interval is the real elapsed time since the loop started.
func (s *Simulator) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()

	s.mu.Lock()
	s.prev = s.clock.Now()
	s.mu.Unlock()

	s.logger.Infof("Simulation loop started: robot=%s period=%s landmarks=%d error_coeff=%g",
		s.cfg.RobotID, s.cfg.TickPeriod, len(s.landmarks), s.errModel.Coeff())

	for {
		select {
		case <-ctx.Done():
			s.logger.Infof("Simulation loop stopped")
			return
		case cmd := <-s.cmdCh:
			s.mu.Lock()
			s.cmd = cmd
			s.mu.Unlock()
			s.logger.Debugf("Commanded velocity updated: v=%.3f w=%.3f", cmd.V, cmd.W)
		case st := <-s.resetCh:
			s.applyReset(st)
		case now := <-ticker.C():
			s.tick(now)
		}
	}
}

func (s *Simulator) applyReset(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	s.logger.Infof("Pose reset: x=%.3f y=%.3f yaw=%.3f", st.X, st.Y, st.Yaw)
}

// tick runs one simulation step. Order matters and mirrors the original
// simulator: plan velocity from the pre-integration tracked velocity,
// integrate, inject error, snapshot the pose, then apply the planned
// velocity deltas.
func (s *Simulator) tick(now time.Time) {
	s.mu.Lock()
	dt := now.Sub(s.prev).Seconds()

	targetV, targetW := PlanVelocity(s.cmd, s.vel)

	s.state = Integrate(s.state, s.vel, dt)
	s.state = s.errModel.Perturb(s.state)

	pose := geometry.PoseStamped{
		Header: geometry.Header{Stamp: s.clock.Now(), FrameID: s.cfg.BaseFrame},
		Pose:   geometry.PoseFromPlanar(s.state.X, s.state.Y, s.state.Yaw),
	}
	s.lastPose = pose

	s.vel.V += targetV * dt
	s.vel.W += targetW * dt

	s.prev = now
	s.mu.Unlock()

	s.emit(pose)
}

// emit publishes the tick outputs: robot transform, per-landmark transforms,
// the relative path (two points per landmark, robot origin first), and the
// current pose.
func (s *Simulator) emit(pose geometry.PoseStamped) {
	robotTF := geometry.FromPose(pose.Pose)
	robotInv := robotTF.Inverse()

	s.broadcastTransform(pose.Header.Stamp, s.cfg.BaseFrame, robotTF)

	path := geometry.Path{
		Header: pose.Header,
		Poses:  make([]geometry.PoseStamped, 0, 2*len(s.landmarks)),
	}
	for _, lm := range s.landmarks {
		lmPose := geometry.PoseFromPlanar(lm.X, lm.Y, 0)
		rel := robotInv.Mul(geometry.FromPose(lmPose))

		origin := geometry.PoseStamped{
			Header: pose.Header,
			Pose:   geometry.Pose{Orientation: geometry.IdentityQuaternion()},
		}
		point := origin
		point.Pose.Position = geometry.Vector3{X: rel.Translation.X, Y: rel.Translation.Y}
		path.Poses = append(path.Poses, origin, point)

		s.broadcastTransform(pose.Header.Stamp, lm.ID, geometry.FromPose(lmPose))
	}

	for _, pub := range s.publishers {
		if err := pub.PublishPath(path); err != nil {
			s.logger.Errorf("Failed to publish path: %v", err)
		}
		if err := pub.PublishPose(pose); err != nil {
			s.logger.Errorf("Failed to publish pose: %v", err)
		}
	}
}

func (s *Simulator) broadcastTransform(stamp time.Time, childFrame string, tf geometry.Transform) {
	msg := geometry.TransformStamped{
		Header:       geometry.Header{Stamp: stamp, FrameID: s.cfg.MapFrame},
		ChildFrameID: childFrame,
		Transform:    tf,
	}
	for _, pub := range s.publishers {
		if err := pub.PublishTransform(msg); err != nil {
			s.logger.Errorf("Failed to publish transform for %s: %v", childFrame, err)
		}
	}
}
