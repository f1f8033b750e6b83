package zeromq

import (
	"encoding/json"
	"fmt"

	"github.com/open-teleop/navsim/pkg/geometry"
	customlog "github.com/open-teleop/navsim/pkg/log"
	"github.com/open-teleop/navsim/pkg/sim"
)

// Robot is the slice of the simulator the command handlers drive.
type Robot interface {
	Command(cmd sim.Twist)
	Reset(st sim.State)
}

// CmdVelHandler handles CMD_VEL messages on the cmd_vel topic.
type CmdVelHandler struct {
	robot  Robot
	logger customlog.Logger
}

// NewCmdVelHandler creates a new handler for velocity commands
func NewCmdVelHandler(robot Robot, logger customlog.Logger) *CmdVelHandler {
	return &CmdVelHandler{
		robot:  robot,
		logger: logger,
	}
}

// HandleMessage parses a Twist payload and updates the commanded velocity.
func (h *CmdVelHandler) HandleMessage(data []byte) error {
	var env RawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse cmd_vel envelope: %w", err)
	}
	if env.Type != MsgTypeCmdVel {
		return fmt.Errorf("%w: %s", ErrUnexpectedMsgType, env.Type)
	}

	var twist geometry.TwistMsg
	if err := json.Unmarshal(env.Data, &twist); err != nil {
		return fmt.Errorf("failed to parse cmd_vel payload: %w", err)
	}

	h.logger.Debugf("Received Twist command: linear_x=%.3f angular_z=%.3f", twist.Linear.X, twist.Angular.Z)
	h.robot.Command(sim.Twist{V: twist.Linear.X, W: twist.Angular.Z})
	return nil
}

// InitialPoseHandler handles INITIAL_POSE messages on the initialpose topic.
type InitialPoseHandler struct {
	robot  Robot
	logger customlog.Logger
}

// NewInitialPoseHandler creates a new handler for pose resets
func NewInitialPoseHandler(robot Robot, logger customlog.Logger) *InitialPoseHandler {
	return &InitialPoseHandler{
		robot:  robot,
		logger: logger,
	}
}

// HandleMessage parses a PoseWithCovarianceStamped payload and resets the
// robot pose. The quaternion is not validated; yaw is extracted as-is.
func (h *InitialPoseHandler) HandleMessage(data []byte) error {
	var env RawEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to parse initialpose envelope: %w", err)
	}
	if env.Type != MsgTypeInitialPose {
		return fmt.Errorf("%w: %s", ErrUnexpectedMsgType, env.Type)
	}

	var msg geometry.PoseWithCovarianceStamped
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return fmt.Errorf("failed to parse initialpose payload: %w", err)
	}

	pose := msg.Pose.Pose
	st := sim.State{
		X:   pose.Position.X,
		Y:   pose.Position.Y,
		Yaw: pose.Orientation.Yaw(),
	}
	h.logger.Infof("Received pose reset: x=%.3f y=%.3f yaw=%.3f", st.X, st.Y, st.Yaw)
	h.robot.Reset(st)
	return nil
}

// RegisterCommandHandlers wires the standard command topics to a robot.
func RegisterCommandHandlers(dispatcher *Dispatcher, robot Robot, logger customlog.Logger) {
	dispatcher.RegisterHandler(TopicCmdVel, NewCmdVelHandler(robot, logger))
	dispatcher.RegisterHandler(TopicInitialPose, NewInitialPoseHandler(robot, logger))
}
