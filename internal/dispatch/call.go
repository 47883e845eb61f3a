package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrUnknownAction is returned for a tool name outside the closed set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrInvalidArguments is returned when tool arguments do not fit the
	// operation's parameter shape.
	ErrInvalidArguments = errors.New("invalid action arguments")
)

// Call is a tool invocation as the decision process sends it.
type Call struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Action decodes the call into a typed action.
func (c Call) Action() (Action, error) {
	return ParseCall(c.Name, c.Arguments)
}

// The action becomes a method name in the executable script.
var gripperActionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type argsParser func(json.RawMessage) (Action, error)

var parsers = map[string]argsParser{
	ToolMoveCartesian:  parseMoveCartesian,
	ToolRotateJoint:    parseRotateJoint,
	ToolControlGripper: parseControlGripper,
}

// ParseCall maps a tool name and JSON arguments onto an Action. Omitted
// Cartesian axes default to zero; joint_name, degrees and action are required.
func ParseCall(name string, args json.RawMessage) (Action, error) {
	parser, ok := parsers[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = []byte("{}")
	}
	return parser(args)
}

func parseMoveCartesian(args json.RawMessage) (Action, error) {
	var p struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, ToolMoveCartesian, err)
	}
	return MoveCartesian{X: deref(p.X), Y: deref(p.Y), Z: deref(p.Z)}, nil
}

func parseRotateJoint(args json.RawMessage) (Action, error) {
	var p struct {
		JointName *string  `json:"joint_name"`
		Degrees   *float64 `json:"degrees"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, ToolRotateJoint, err)
	}
	if p.JointName == nil || *p.JointName == "" {
		return nil, fmt.Errorf("%w: %s: joint_name is required", ErrInvalidArguments, ToolRotateJoint)
	}
	if p.Degrees == nil {
		return nil, fmt.Errorf("%w: %s: degrees is required", ErrInvalidArguments, ToolRotateJoint)
	}
	return RotateJoint{JointName: *p.JointName, Degrees: *p.Degrees}, nil
}

func parseControlGripper(args json.RawMessage) (Action, error) {
	var p struct {
		Action *string `json:"action"`
	}
	if err := json.Unmarshal(args, &p); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArguments, ToolControlGripper, err)
	}
	if p.Action == nil || *p.Action == "" {
		return nil, fmt.Errorf("%w: %s: action is required", ErrInvalidArguments, ToolControlGripper)
	}
	if !gripperActionPattern.MatchString(*p.Action) {
		return nil, fmt.Errorf("%w: %s: action %q is not a method name", ErrInvalidArguments, ToolControlGripper, *p.Action)
	}
	return ControlGripper{Action: *p.Action}, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
