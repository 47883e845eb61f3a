package command

import (
	"strings"

	"github.com/saker-ai/armscript/internal/arm"
)

// Entry is one logical command: the records appended to both sequences by a
// single Record call.
type Entry struct {
	Index      int        `json:"index"`
	Structured Structured `json:"structured"`
	Executable string     `json:"executable"`
}

// Recorder turns decided actions into index-aligned structured and executable
// records while tracking arm state. It is not safe for concurrent use.
type Recorder struct {
	state      *arm.State
	structured []Structured
	executable []string
}

// NewRecorder creates a recorder with the arm at the origin.
func NewRecorder() *Recorder {
	return &Recorder{
		state:      arm.New(),
		structured: []Structured{},
		executable: []string{},
	}
}

// RecordMove applies a Cartesian delta and records the resulting absolute position.
func (r *Recorder) RecordMove(dx, dy, dz float64) Entry {
	pos := r.state.ApplyDelta(dx, dy, dz)
	return r.append(NewCartesianMove(pos.X, pos.Y, pos.Z), MoveLine(pos))
}

// RecordRotate records a joint rotation. The structured record keeps degrees,
// the executable line carries radians.
func (r *Recorder) RecordRotate(jointName string, degrees float64) Entry {
	return r.append(NewRotateJoint(jointName, degrees), RotateLine(jointName, Radians(degrees)))
}

// RecordGripper records a gripper action. The structured record is lower-cased;
// the executable line keeps the caller's casing.
func (r *Recorder) RecordGripper(action string) Entry {
	return r.append(NewGripperAction(strings.ToLower(action)), GripperLine(action))
}

func (r *Recorder) append(cmd Structured, line string) Entry {
	r.structured = append(r.structured, cmd)
	r.executable = append(r.executable, line)
	return Entry{Index: len(r.structured) - 1, Structured: cmd, Executable: line}
}

// Len returns the number of recorded commands.
func (r *Recorder) Len() int {
	return len(r.structured)
}

// Position returns the current absolute arm position.
func (r *Recorder) Position() arm.Position {
	return r.state.Position()
}

// Structured returns a copy of the structured sequence.
func (r *Recorder) Structured() []Structured {
	out := make([]Structured, len(r.structured))
	copy(out, r.structured)
	return out
}

// Executable returns a copy of the executable sequence.
func (r *Recorder) Executable() []string {
	out := make([]string, len(r.executable))
	copy(out, r.executable)
	return out
}
