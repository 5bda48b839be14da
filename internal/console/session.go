package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/om-jewellers/stockledger/internal/ledger"
)

// Session is the persisted login of the operator.
type Session struct {
	Token string      `json:"token"`
	Role  ledger.Role `json:"role"`
}

// Guest is the session used when nobody is logged in.
var Guest = Session{Role: ledger.RoleGuest}

// LoadSession resolves the active session. An explicit token in the
// environment wins over the session file.
func LoadSession(cfg *Config) (Session, error) {
	if cfg.Token != "" {
		return Session{Token: cfg.Token, Role: ledger.ParseRole(cfg.Role)}, nil
	}
	data, err := os.ReadFile(cfg.TokenFile)
	if errors.Is(err, os.ErrNotExist) {
		return Guest, nil
	}
	if err != nil {
		return Guest, fmt.Errorf("console: read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Guest, fmt.Errorf("console: decode session: %w", err)
	}
	if sess.Token == "" {
		return Guest, nil
	}
	sess.Role = ledger.ParseRole(string(sess.Role))
	return sess, nil
}

// SaveSession writes the session file with owner-only permissions.
func SaveSession(path string, sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*")
	if err != nil {
		return fmt.Errorf("console: save session: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("console: save session: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("console: save session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("console: save session: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// ClearSession removes the session file. A missing file is not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("console: clear session: %w", err)
	}
	return nil
}
