package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind is the discriminator written to the "type" field of a structured record.
type Kind string

const (
	KindCartesianMove Kind = "cartesian_move"
	KindRotateJoint   Kind = "rotate_joint"
	KindGripper       Kind = "gripper"
)

// ErrUnknownKind is returned when a structured record carries an unknown type.
var ErrUnknownKind = errors.New("unknown command type")

// Structured is one record of the structured command list. The set of
// implementations is closed: CartesianMove, RotateJoint and GripperAction.
type Structured interface {
	Kind() Kind
	structured()
}

// CartesianMove holds the absolute cumulative position after a move.
type CartesianMove struct {
	Type Kind   `json:"type" yaml:"type"`
	X    Number `json:"x" yaml:"x"`
	Y    Number `json:"y" yaml:"y"`
	Z    Number `json:"z" yaml:"z"`
}

// NewCartesianMove builds a move record for an absolute position.
func NewCartesianMove(x, y, z float64) CartesianMove {
	return CartesianMove{Type: KindCartesianMove, X: Number(x), Y: Number(y), Z: Number(z)}
}

func (CartesianMove) Kind() Kind { return KindCartesianMove }
func (CartesianMove) structured() {}

// RotateJoint holds a joint rotation in degrees.
type RotateJoint struct {
	Type      Kind   `json:"type" yaml:"type"`
	JointName string `json:"joint_name" yaml:"joint_name"`
	Degrees   Number `json:"degrees" yaml:"degrees"`
}

// NewRotateJoint builds a rotation record.
func NewRotateJoint(jointName string, degrees float64) RotateJoint {
	return RotateJoint{Type: KindRotateJoint, JointName: jointName, Degrees: Number(degrees)}
}

func (RotateJoint) Kind() Kind { return KindRotateJoint }
func (RotateJoint) structured() {}

// GripperAction holds a lower-cased gripper action name.
type GripperAction struct {
	Type   Kind   `json:"type" yaml:"type"`
	Action string `json:"action" yaml:"action"`
}

// NewGripperAction builds a gripper record. The caller normalizes action.
func NewGripperAction(action string) GripperAction {
	return GripperAction{Type: KindGripper, Action: action}
}

func (GripperAction) Kind() Kind { return KindGripper }
func (GripperAction) structured() {}

// DecodeStructured parses a structured command list written as JSON or YAML.
// JSON input goes through encoding/json so \u escapes, including surrogate
// pairs, decode the way they were written.
func DecodeStructured(data []byte) ([]Structured, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed) {
		return decodeJSON(trimmed)
	}
	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decode structured commands: %w", err)
	}
	out := make([]Structured, 0, len(nodes))
	for i := range nodes {
		cmd, err := decodeRecord(nodes[i].Decode)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

func decodeJSON(data []byte) ([]Structured, error) {
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode structured commands: %w", err)
	}
	out := make([]Structured, 0, len(records))
	for i, raw := range records {
		cmd, err := decodeRecord(func(v any) error { return json.Unmarshal(raw, v) })
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

func decodeRecord(decode func(any) error) (Structured, error) {
	var head struct {
		Type Kind `json:"type" yaml:"type"`
	}
	if err := decode(&head); err != nil {
		return nil, err
	}
	switch head.Type {
	case KindCartesianMove:
		var cmd CartesianMove
		if err := decode(&cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case KindRotateJoint:
		var cmd RotateJoint
		if err := decode(&cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	case KindGripper:
		var cmd GripperAction
		if err := decode(&cmd); err != nil {
			return nil, err
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, head.Type)
	}
}
