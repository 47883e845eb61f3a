package command

import (
	"fmt"
	"math"
	"strings"

	"github.com/saker-ai/armscript/internal/arm"
)

// Handle is the manipulator variable every executable line is called on.
const Handle = "bot"

// Radians converts a degree value the same way the robot runtime does.
func Radians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}

// MoveLine renders an absolute Cartesian move.
func MoveLine(pos arm.Position) string {
	return fmt.Sprintf("%s.arm.set_ee_cartesian_trajectory(x=%s, y=%s, z=%s)",
		Handle, PythonFloat(pos.X), PythonFloat(pos.Y), PythonFloat(pos.Z))
}

// RotateLine renders a single joint rotation; radians is the target position.
func RotateLine(jointName string, radians float64) string {
	return fmt.Sprintf("%s.arm.set_single_joint_position(joint_name=%s, position=%s)",
		Handle, pythonString(jointName), PythonFloat(radians))
}

// GripperLine renders a zero-argument gripper invocation with action as given.
func GripperLine(action string) string {
	return fmt.Sprintf("%s.gripper.%s()", Handle, action)
}

// ExecutableFor renders the executable line for a structured record. Gripper
// lines use the record's normalized action.
func ExecutableFor(cmd Structured) (string, error) {
	switch c := cmd.(type) {
	case CartesianMove:
		return MoveLine(arm.Position{X: float64(c.X), Y: float64(c.Y), Z: float64(c.Z)}), nil
	case RotateJoint:
		return RotateLine(c.JointName, Radians(float64(c.Degrees))), nil
	case GripperAction:
		return GripperLine(c.Action), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownKind, cmd)
	}
}

var pythonEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func pythonString(s string) string {
	return "'" + pythonEscaper.Replace(s) + "'"
}
