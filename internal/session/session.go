package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/saker-ai/armscript/internal/arm"
	"github.com/saker-ai/armscript/internal/command"
	"github.com/saker-ai/armscript/internal/dispatch"
	"github.com/saker-ai/armscript/internal/export"
	"github.com/saker-ai/armscript/internal/session/fsm"
	"github.com/saker-ai/armscript/internal/storage"
)

var (
	// ErrSessionClosed is returned for actions on a closed session.
	ErrSessionClosed = fsm.ErrClosed
	// ErrNotPersisted is returned by Export on a session without a data dir.
	ErrNotPersisted = errors.New("session has no data dir")
)

// Artifacts are the files written by one export.
type Artifacts struct {
	StructuredPath string `json:"structured_path"`
	ExecutablePath string `json:"executable_path"`
	Commands       int    `json:"commands"`
}

// Snapshot is a consistent view of a session's command log.
type Snapshot struct {
	ID         string               `json:"session_id"`
	State      fsm.State            `json:"state"`
	Position   arm.Position         `json:"position"`
	Structured []command.Structured `json:"structured"`
	Executable []string             `json:"executable"`
}

// Options configures where and how sessions persist.
type Options struct {
	DataDir        string
	StructuredName string
	ExecutableName string
	Mode           string
	MaxActive      int
}

func (o Options) withDefaults() Options {
	if o.StructuredName == "" {
		o.StructuredName = export.DefaultStructuredPath
	}
	if o.ExecutableName == "" {
		o.ExecutableName = export.DefaultExecutablePath
	}
	return o
}

// Session owns one arm state and its command log for the lifetime of one
// decision loop. All methods are safe for concurrent use; actions are applied
// one at a time in arrival order.
type Session struct {
	id        string
	createdAt string

	mu         sync.Mutex
	rec        *command.Recorder
	dispatcher *dispatch.Dispatcher
	machine    *fsm.Machine
	exporter   *export.Exporter
	opts       Options
	logger     *zap.Logger
}

// New creates a session. With an empty opts.DataDir the session lives in
// memory only and can be exported with ExportTo.
func New(id string, opts Options, exporter *export.Exporter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = export.New(export.DefaultPreamble(), export.FormatJSON)
	}
	rec := command.NewRecorder()
	machine := fsm.New()
	machine.SetMode(opts.Mode)
	return &Session{
		id:         id,
		createdAt:  time.Now().Format(time.RFC3339Nano),
		rec:        rec,
		dispatcher: dispatch.New(rec),
		machine:    machine,
		exporter:   exporter,
		opts:       opts.withDefaults(),
		logger:     logger,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the lifecycle state.
func (s *Session) State() fsm.State {
	return s.machine.State()
}

// Apply records one decided action.
func (s *Session) Apply(action dispatch.Action) (command.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.machine.OnAction(); err != nil {
		return command.Entry{}, err
	}
	entry := s.dispatcher.Dispatch(action)
	s.logger.Debug("action recorded",
		zap.String("session_id", s.id),
		zap.String("action", action.Name()),
		zap.String("kind", string(entry.Structured.Kind())),
		zap.Int("index", entry.Index),
	)

	if s.machine.Mode() == fsm.ModeAuto && s.opts.DataDir != "" {
		if _, err := s.exportLocked(false); err != nil {
			s.logger.Warn("auto export failed", zap.String("session_id", s.id), zap.Error(err))
		}
	}
	return entry, nil
}

// Call parses and applies a tool call.
func (s *Session) Call(call dispatch.Call) (command.Entry, error) {
	action, err := call.Action()
	if err != nil {
		return command.Entry{}, err
	}
	return s.Apply(action)
}

// MoveCartesian records a relative Cartesian move.
func (s *Session) MoveCartesian(x, y, z float64) (command.Entry, error) {
	return s.Apply(dispatch.MoveCartesian{X: x, Y: y, Z: z})
}

// RotateJoint records a joint rotation in degrees.
func (s *Session) RotateJoint(jointName string, degrees float64) (command.Entry, error) {
	return s.Apply(dispatch.RotateJoint{JointName: jointName, Degrees: degrees})
}

// ControlGripper records a gripper action.
func (s *Session) ControlGripper(action string) (command.Entry, error) {
	return s.Apply(dispatch.ControlGripper{Action: action})
}

// Snapshot returns the current position and copies of both sequences.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.id,
		State:      s.machine.State(),
		Position:   s.rec.Position(),
		Structured: s.rec.Structured(),
		Executable: s.rec.Executable(),
	}
}

// ExportTo writes both artifacts to explicit destinations.
func (s *Session) ExportTo(structuredPath string, executablePath string) (Artifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeArtifacts(structuredPath, executablePath)
}

// Export writes both artifacts into the session's data directory.
func (s *Session) Export() (Artifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked(false)
}

// Close exports a final time when persisted and rejects further actions.
func (s *Session) Close() (Artifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.machine.OnClose() {
		return Artifacts{}, ErrSessionClosed
	}
	s.logger.Info("session closed", zap.String("session_id", s.id), zap.Int("commands", s.rec.Len()))
	if s.opts.DataDir == "" {
		return Artifacts{Commands: s.rec.Len()}, nil
	}
	return s.exportLocked(true)
}

func (s *Session) exportLocked(closed bool) (Artifacts, error) {
	if s.opts.DataDir == "" {
		return Artifacts{}, ErrNotPersisted
	}
	structuredPath, err := storage.ArtifactPath(s.opts.DataDir, s.id, s.opts.StructuredName)
	if err != nil {
		return Artifacts{}, err
	}
	executablePath, err := storage.ArtifactPath(s.opts.DataDir, s.id, s.opts.ExecutableName)
	if err != nil {
		return Artifacts{}, err
	}
	dir, err := storage.EnsureSessionDir(s.opts.DataDir, s.id)
	if err != nil {
		return Artifacts{}, err
	}
	artifacts, err := s.writeArtifacts(structuredPath, executablePath)
	if err != nil {
		return Artifacts{}, err
	}
	meta := s.meta(closed, s.opts.StructuredName, s.opts.ExecutableName)
	if err := storage.WriteMeta(s.opts.DataDir, meta); err != nil {
		return Artifacts{}, fmt.Errorf("write session meta %s: %w", dir, err)
	}
	return artifacts, nil
}

func (s *Session) writeArtifacts(structuredPath string, executablePath string) (Artifacts, error) {
	if err := s.exporter.ExportStructured(structuredPath, s.rec); err != nil {
		return Artifacts{}, err
	}
	if err := s.exporter.ExportExecutable(executablePath, s.rec); err != nil {
		return Artifacts{}, err
	}
	s.logger.Info("session exported",
		zap.String("session_id", s.id),
		zap.String("structured_path", structuredPath),
		zap.String("executable_path", executablePath),
		zap.Int("commands", s.rec.Len()),
	)
	return Artifacts{StructuredPath: structuredPath, ExecutablePath: executablePath, Commands: s.rec.Len()}, nil
}

func (s *Session) meta(closed bool, structuredFile string, executableFile string) storage.SessionMeta {
	return storage.SessionMeta{
		ID:             s.id,
		CreatedAt:      s.createdAt,
		UpdatedAt:      time.Now().Format(time.RFC3339Nano),
		Commands:       s.rec.Len(),
		Closed:         closed,
		StructuredFile: structuredFile,
		ExecutableFile: executableFile,
	}
}
