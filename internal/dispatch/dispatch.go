package dispatch

import (
	"github.com/saker-ai/armscript/internal/command"
)

// Tool names exposed to the decision process.
const (
	ToolMoveCartesian  = "move_cartesian"
	ToolRotateJoint    = "rotate_joint"
	ToolControlGripper = "control_gripper"
)

// Action is one decided arm operation. The set is closed: MoveCartesian,
// RotateJoint and ControlGripper.
type Action interface {
	Name() string
	apply(rec *command.Recorder) command.Entry
}

// MoveCartesian moves the end effector by a relative offset in metres.
type MoveCartesian struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (MoveCartesian) Name() string { return ToolMoveCartesian }

func (a MoveCartesian) apply(rec *command.Recorder) command.Entry {
	return rec.RecordMove(a.X, a.Y, a.Z)
}

// RotateJoint rotates a named joint by degrees.
type RotateJoint struct {
	JointName string  `json:"joint_name"`
	Degrees   float64 `json:"degrees"`
}

func (RotateJoint) Name() string { return ToolRotateJoint }

func (a RotateJoint) apply(rec *command.Recorder) command.Entry {
	return rec.RecordRotate(a.JointName, a.Degrees)
}

// ControlGripper issues a gripper action such as "open" or "close".
type ControlGripper struct {
	Action string `json:"action"`
}

func (ControlGripper) Name() string { return ToolControlGripper }

func (a ControlGripper) apply(rec *command.Recorder) command.Entry {
	return rec.RecordGripper(a.Action)
}

// Dispatcher is the entry point the decision process calls into. It forwards
// every operation to the recorder it wraps and adds no synchronization.
type Dispatcher struct {
	rec *command.Recorder
}

// New creates a dispatcher over rec.
func New(rec *command.Recorder) *Dispatcher {
	return &Dispatcher{rec: rec}
}

// MoveCartesian records a relative Cartesian move. Pass 0 for axes that do not move.
func (d *Dispatcher) MoveCartesian(x, y, z float64) command.Entry {
	return d.rec.RecordMove(x, y, z)
}

// RotateJoint records a joint rotation in degrees.
func (d *Dispatcher) RotateJoint(jointName string, degrees float64) command.Entry {
	return d.rec.RecordRotate(jointName, degrees)
}

// ControlGripper records a gripper action.
func (d *Dispatcher) ControlGripper(action string) command.Entry {
	return d.rec.RecordGripper(action)
}

// Dispatch applies a decided action.
func (d *Dispatcher) Dispatch(action Action) command.Entry {
	return action.apply(d.rec)
}
