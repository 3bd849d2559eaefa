// Package sessions persists per-user frame session records as one JSON
// file per session id. Last write wins; concurrent actions from the same
// user can race on read-modify-write, which is acceptable at human
// interaction cadence.
package sessions

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/vaultframe/internal/domain"
)

const defaultSessionDir = "./data/sessions"

// Store is a file-backed session record store scoped to one vault.
type Store struct {
	dir string
}

// NewStore creates a session store under dir (defaulting next to the
// binary) for the given vault id.
func NewStore(dir, vaultID string) (*Store, error) {
	if dir == "" {
		dir = defaultSessionDir
	}
	dir = filepath.Join(dir, vaultID)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create session dir")
	}

	return &Store{dir: dir}, nil
}

// storedSession is the serializable form of domain.Session. Integer
// amounts are kept as decimal strings so records survive JSON round-trips
// without precision loss.
type storedSession struct {
	View           string `json:"view"`
	Address        string `json:"address,omitempty"`
	Shares         string `json:"shares,omitempty"`
	Assets         string `json:"assets,omitempty"`
	Allowance      string `json:"allowance,omitempty"`
	DepositAmount  string `json:"deposit_amount,omitempty"`
	WithdrawAmount string `json:"withdraw_amount,omitempty"`
}

func (s *Store) path(sessionID uint64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", sessionID))
}

// Load reads the record for the given session id. A missing file returns
// nil, which callers treat as the initial record.
func (s *Store) Load(sessionID uint64) (*domain.Session, error) {
	payload, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read session record")
	}

	if len(payload) == 0 {
		return nil, nil
	}

	var stored storedSession
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, errors.Wrap(err, "decode session record")
	}

	sess, err := stored.toSession()
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save writes the record atomically via temp file.
func (s *Store) Save(sessionID uint64, sess domain.Session) error {
	payload, err := json.MarshalIndent(newStoredSession(sess), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode session record")
	}

	path := s.path(sessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write session record temp file")
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "persist session record")
	}

	return nil
}

func newStoredSession(sess domain.Session) storedSession {
	return storedSession{
		View:           sess.View.String(),
		Address:        sess.Address,
		Shares:         bigString(sess.Shares),
		Assets:         bigString(sess.Assets),
		Allowance:      bigString(sess.Allowance),
		DepositAmount:  bigString(sess.DepositAmount),
		WithdrawAmount: bigString(sess.WithdrawAmount),
	}
}

func (st *storedSession) toSession() (domain.Session, error) {
	view := domain.View(st.View)
	if !view.IsValid() {
		return domain.Session{}, errors.Errorf("stored session has unknown view %q", st.View)
	}

	sess := domain.Session{View: view, Address: st.Address}

	for _, field := range []struct {
		name  string
		raw   string
		value **big.Int
	}{
		{"shares", st.Shares, &sess.Shares},
		{"assets", st.Assets, &sess.Assets},
		{"allowance", st.Allowance, &sess.Allowance},
		{"deposit_amount", st.DepositAmount, &sess.DepositAmount},
		{"withdraw_amount", st.WithdrawAmount, &sess.WithdrawAmount},
	} {
		if field.raw == "" {
			continue
		}
		parsed, ok := new(big.Int).SetString(field.raw, 10)
		if !ok {
			return domain.Session{}, errors.Errorf("stored session has malformed %s %q", field.name, field.raw)
		}
		*field.value = parsed
	}

	return sess, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}
