// Package replay drives a session from a recorded transcript of tool calls.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/saker-ai/armscript/internal/command"
	"github.com/saker-ai/armscript/internal/dispatch"
	"github.com/saker-ai/armscript/internal/session"
)

// ErrMissingName is returned for a transcript entry without a tool name.
var ErrMissingName = errors.New("transcript entry has no name")

type rawCall struct {
	Name      string    `yaml:"name"`
	Arguments yaml.Node `yaml:"arguments"`
}

// Load reads a JSON or YAML transcript file.
func Load(path string) ([]dispatch.Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", path, err)
	}
	calls, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	return calls, nil
}

// Parse decodes a list of {name, arguments} entries. Arguments may be a
// mapping or a string holding a JSON object, the way chat completion APIs
// deliver function call arguments.
func Parse(data []byte) ([]dispatch.Call, error) {
	var raw []rawCall
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	calls := make([]dispatch.Call, 0, len(raw))
	for i, rc := range raw {
		if rc.Name == "" {
			return nil, fmt.Errorf("entry %d: %w", i, ErrMissingName)
		}
		args, err := argumentsJSON(&rc.Arguments)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, rc.Name, err)
		}
		calls = append(calls, dispatch.Call{Name: rc.Name, Arguments: args})
	}
	return calls, nil
}

func argumentsJSON(node *yaml.Node) (json.RawMessage, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		return json.RawMessage(node.Value), nil
	}
	var value any
	if err := node.Decode(&value); err != nil {
		return nil, err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dispatch.ErrInvalidArguments, err)
	}
	return data, nil
}

// Run applies calls to sess in order and stops at the first rejected call.
// Calls before the failure stay recorded.
func Run(sess *session.Session, calls []dispatch.Call, logger *zap.Logger) ([]command.Entry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries := make([]command.Entry, 0, len(calls))
	for i, call := range calls {
		entry, err := sess.Call(call)
		if err != nil {
			logger.Warn("replay call rejected",
				zap.String("session_id", sess.ID()),
				zap.Int("index", i),
				zap.String("name", call.Name),
				zap.Error(err),
			)
			return entries, fmt.Errorf("call %d (%s): %w", i, call.Name, err)
		}
		entries = append(entries, entry)
	}
	logger.Info("replay finished",
		zap.String("session_id", sess.ID()),
		zap.Int("commands", len(entries)),
	)
	return entries, nil
}
