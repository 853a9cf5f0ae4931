package client

import (
	"encoding/json"
	"errors"
	"os"
)

// SessionUser is the public profile returned alongside a token.
type SessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session is the client's auth state: a token and the user it belongs
// to. It is an explicit object injected into the API client, not a
// process-wide global, and it persists itself to a JSON file.
type Session struct {
	Token string       `json:"token,omitempty"`
	User  *SessionUser `json:"user,omitempty"`

	path string
}

// LoadSession reads a session from the given file. A missing file is
// not an error; it yields an empty (unauthenticated) session bound to
// that path.
func LoadSession(path string) (*Session, error) {
	s := &Session{path: path}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	s.path = path
	return s, nil
}

// Save writes the session to its file.
func (s *Session) Save() error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// Clear wipes the auth state and removes the session file.
func (s *Session) Clear() error {
	s.Token = ""
	s.User = nil
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s.Token != ""
}
