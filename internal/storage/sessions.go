package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const metaFileName = "meta.json"

// SessionMeta describes one persisted recording session.
type SessionMeta struct {
	ID             string `json:"id"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
	Commands       int    `json:"commands"`
	Closed         bool   `json:"closed"`
	StructuredFile string `json:"structured_file,omitempty"`
	ExecutableFile string `json:"executable_file,omitempty"`
}

var (
	// ErrInvalidName is returned for session ids or artifact names that are not
	// safe path components.
	ErrInvalidName = errors.New("invalid session path")
	// ErrEmptyBaseDir is returned when no data directory is configured.
	ErrEmptyBaseDir = errors.New("session data dir is empty")
)

var safeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)

// NewSessionID returns a sortable, unique session id.
func NewSessionID() string {
	return time.Now().Format("2006-01-02_15-04-05") + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// CreateSession allocates a session directory and writes its initial metadata.
func CreateSession(baseDir string) (SessionMeta, error) {
	id := NewSessionID()
	if _, err := EnsureSessionDir(baseDir, id); err != nil {
		return SessionMeta{}, err
	}
	now := time.Now().Format(time.RFC3339Nano)
	meta := SessionMeta{ID: id, CreatedAt: now, UpdatedAt: now}
	if err := WriteMeta(baseDir, meta); err != nil {
		return SessionMeta{}, err
	}
	return meta, nil
}

// SessionDir returns the directory of an existing or future session.
func SessionDir(baseDir string, id string) (string, error) {
	if baseDir == "" {
		return "", ErrEmptyBaseDir
	}
	if !isSafeName(id) {
		return "", ErrInvalidName
	}
	return filepath.Join(baseDir, id), nil
}

// ArtifactPath returns the path of a file inside a session directory.
func ArtifactPath(baseDir string, id string, name string) (string, error) {
	dir, err := SessionDir(baseDir, id)
	if err != nil {
		return "", err
	}
	if !isSafeName(name) {
		return "", ErrInvalidName
	}
	return filepath.Join(dir, name), nil
}

// WriteMeta stores meta in its session directory, creating the directory if needed.
func WriteMeta(baseDir string, meta SessionMeta) error {
	dir, err := EnsureSessionDir(baseDir, meta.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metaFileName), data, 0o644)
}

// GetMeta reads the metadata of one session.
func GetMeta(baseDir string, id string) (SessionMeta, error) {
	path, err := ArtifactPath(baseDir, id, metaFileName)
	if err != nil {
		return SessionMeta{}, err
	}
	return readMeta(path)
}

// DeleteSession removes a session directory and everything in it.
func DeleteSession(baseDir string, id string) bool {
	dir, err := SessionDir(baseDir, id)
	if err != nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, metaFileName)); err != nil {
		return false
	}
	if err := os.RemoveAll(dir); err != nil {
		return false
	}
	return true
}

// ListSessions returns every readable session, most recently updated first.
func ListSessions(baseDir string) []SessionMeta {
	list := []SessionMeta{}
	if baseDir == "" {
		return list
	}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return list
	}
	for _, entry := range entries {
		if !entry.IsDir() || !isSafeName(entry.Name()) {
			continue
		}
		meta, err := readMeta(filepath.Join(baseDir, entry.Name(), metaFileName))
		if err != nil {
			continue
		}
		list = append(list, meta)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].UpdatedAt == list[j].UpdatedAt {
			return list[i].ID > list[j].ID
		}
		return list[i].UpdatedAt > list[j].UpdatedAt
	})

	return list
}

// EnsureSessionDir creates the directory of a session if it does not exist.
func EnsureSessionDir(baseDir string, id string) (string, error) {
	dir, err := SessionDir(baseDir, id)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func isSafeName(name string) bool {
	return safeNamePattern.MatchString(name) && name != "." && name != ".."
}

func readMeta(path string) (SessionMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionMeta{}, err
	}
	var meta SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return SessionMeta{}, err
	}
	return meta, nil
}
