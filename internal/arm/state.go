package arm

// Position is an absolute end-effector offset from the session origin, in metres.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// State tracks the cumulative Cartesian position of one arm for one session.
// It is not safe for concurrent use; the owning session serializes access.
type State struct {
	pos Position
}

// New creates a state at the origin.
func New() *State {
	return &State{}
}

// ApplyDelta adds the deltas to the current position and returns the new
// absolute position. Inputs are not validated.
func (s *State) ApplyDelta(dx, dy, dz float64) Position {
	s.pos.X += dx
	s.pos.Y += dy
	s.pos.Z += dz
	return s.pos
}

// Position returns the current absolute position.
func (s *State) Position() Position {
	return s.pos
}
