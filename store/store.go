// cybercraft-launcher/store/store.go
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Key string

const (
	KeySession  Key = "session"
	KeySettings Key = "settings"
)

// SchemaVersion is written into every document envelope.
const SchemaVersion = 1

var (
	ErrUnknownKey = errors.New("unknown store key")

	fileNames = map[Key]string{
		KeySession:  "session.json",
		KeySettings: "settings.json",
	}
	filePerms = map[Key]os.FileMode{
		KeySession:  0600,
		KeySettings: 0644,
	}
	validate = validator.New()
)

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Store persists the launcher's singleton documents under one directory.
// It is owned by the host process alone and does no locking.
type Store struct {
	dir    string
	logger *zap.Logger
}

func New(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key Key) (string, error) {
	name, ok := fileNames[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return filepath.Join(s.dir, name), nil
}

// Read decodes the document stored under key into v. A missing file is
// reported as found == false with a nil error.
func (s *Store) Read(key Key, v any) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Version > 0 && len(env.Data) > 0 {
		if env.Version > SchemaVersion {
			s.logger.Warn("document written by a newer launcher",
				zap.String("key", string(key)), zap.Int("version", env.Version))
		}
		raw = env.Data
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Write replaces the whole document under key.
func (s *Store) Write(key Key, v any) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(envelope{Version: SchemaVersion, Data: data}); err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	tempFile, err := os.CreateTemp(s.dir, string(key)+"_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	_, writeErr := tempFile.Write(buf.Bytes())
	closeErr := tempFile.Close()
	if writeErr != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("write %s: %w", key, writeErr)
	}
	if closeErr != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("close %s: %w", key, closeErr)
	}
	if err := os.Chmod(tempFile.Name(), filePerms[key]); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := os.Rename(tempFile.Name(), p); err != nil {
		os.Remove(tempFile.Name())
		return fmt.Errorf("replace %s: %w", key, err)
	}
	s.logger.Debug("document written", zap.String("key", string(key)))
	return nil
}

// Delete removes the document under key. Deleting a missing document is
// not an error.
func (s *Store) Delete(key Key) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Session returns nil when no identity is stored.
func (s *Store) Session() (*SessionIdentity, error) {
	var id SessionIdentity
	found, err := s.Read(KeySession, &id)
	if err != nil || !found {
		return nil, err
	}
	return &id, nil
}

func (s *Store) SaveSession(id SessionIdentity) error {
	if err := validate.Struct(id); err != nil {
		return fmt.Errorf("invalid session identity: %w", err)
	}
	return s.Write(KeySession, id)
}

func (s *Store) DeleteSession() error {
	return s.Delete(KeySession)
}

func (s *Store) Settings() (Settings, bool, error) {
	var st Settings
	found, err := s.Read(KeySettings, &st)
	return st, found, err
}

func (s *Store) SaveSettings(st Settings) error {
	if err := validate.Struct(st); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return s.Write(KeySettings, st)
}
