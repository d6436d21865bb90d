// Package credentials stores the signed-in session and hands the bearer token
// to the calendar API client.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
)

// ErrMissing is returned whenever no bearer token is available.
var ErrMissing = errors.New("authentication token is required")

// Session is what the login screen persists on the client.
type Session struct {
	Token  *oauth2.Token `json:"token"`
	Role   string        `json:"role"`
	UserID string        `json:"user_id,omitempty"`
	Name   string        `json:"name,omitempty"`
}

// HasToken reports whether the session carries a usable access token.
func (s Session) HasToken() bool {
	return s.Token != nil && strings.TrimSpace(s.Token.AccessToken) != ""
}

// FileStore keeps a Session in a JSON file. It implements oauth2.TokenSource
// so it can be handed straight to the API client.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the session file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the session file. A missing file yields ErrMissing.
func (s *FileStore) Load() (Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, ErrMissing
		}
		return Session{}, fmt.Errorf("unable to read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("unable to parse session file: %w", err)
	}
	return sess, nil
}

// Save writes the session with 0600 permissions via a temp file and rename.
func (s *FileStore) Save(sess Session) error {
	if !sess.HasToken() {
		return ErrMissing
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("unable to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".teamcal-session-*.tmp")
	if err != nil {
		return fmt.Errorf("unable to create session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Remove deletes the session file. Removing an absent file is not an error.
func (s *FileStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Token implements oauth2.TokenSource.
func (s *FileStore) Token() (*oauth2.Token, error) {
	sess, err := s.Load()
	if err != nil {
		return nil, err
	}
	if !sess.HasToken() {
		return nil, ErrMissing
	}
	return sess.Token, nil
}

// Static returns a TokenSource for a fixed bearer token, e.g. one supplied via
// the environment. An empty token yields ErrMissing on every call.
func Static(token string) oauth2.TokenSource {
	return staticSource(strings.TrimSpace(token))
}

type staticSource string

func (s staticSource) Token() (*oauth2.Token, error) {
	if s == "" {
		return nil, ErrMissing
	}
	return &oauth2.Token{AccessToken: string(s), TokenType: "Bearer"}, nil
}
