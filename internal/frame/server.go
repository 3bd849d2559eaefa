// Package frame serves the button-navigated vault UI over stateless HTTP
// round-trips. Each POST rebuilds continuity from the session store, runs
// the pure transition engine, persists the result and renders the next
// screen.
package frame

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/vaultframe/internal/chain"
	"github.com/vadiminshakov/vaultframe/internal/domain"
	"github.com/vadiminshakov/vaultframe/internal/engine"
	"github.com/vadiminshakov/vaultframe/internal/storage/journal"
)

// SessionStore loads and saves per-user records. A nil record on load
// means the session id has never been seen.
type SessionStore interface {
	Load(sessionID uint64) (*domain.Session, error)
	Save(sessionID uint64, sess domain.Session) error
}

// BalanceReader is the live chain read used for validation and display.
type BalanceReader interface {
	ReadBalances(ctx context.Context, user string) (*domain.Balances, error)
}

// TransitionJournal records accepted transitions for audit.
type TransitionJournal interface {
	Record(entry journal.Entry) error
}

// VaultRuntime bundles everything one vault needs to serve its frame.
type VaultRuntime struct {
	Vault    domain.Vault
	Engine   *engine.Engine
	Sessions SessionStore
	Oracle   BalanceReader
	Builder  *chain.TxBuilder
}

// Server exposes the frame HTTP endpoints for a set of vaults.
type Server struct {
	Addr    string
	BaseURL string
	Journal TransitionJournal

	logger *zap.Logger
	vaults map[string]*VaultRuntime
}

// NewServer creates a frame server. Screen button lists are checked
// against the engine's transition table up front so a drifted screen
// fails at startup, not on a user's button press.
func NewServer(addr, baseURL string, vaults []*VaultRuntime, jrnl TransitionJournal, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	byID := make(map[string]*VaultRuntime, len(vaults))
	for _, vr := range vaults {
		if err := checkButtonParity(vr.Vault); err != nil {
			return nil, err
		}
		byID[vr.Vault.ID] = vr
	}

	return &Server{
		Addr:    addr,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Journal: jrnl,
		logger:  logger,
		vaults:  byID,
	}, nil
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vault/{id}", s.withVault(s.handleInitial))
	mux.HandleFunc("POST /vault/{id}", s.withVault(s.handleAction))
	mux.HandleFunc("GET /vault/{id}/image", s.handleImage)
	mux.HandleFunc("POST /vault/{id}/approve", s.withVault(s.handleApprove))
	mux.HandleFunc("POST /vault/{id}/deposit", s.withVault(s.handleDeposit))
	mux.HandleFunc("POST /vault/{id}/redeem", s.withVault(s.handleRedeem))
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type vaultHandler func(w http.ResponseWriter, r *http.Request, vr *VaultRuntime)

func (s *Server) withVault(h vaultHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vr, ok := s.vaults[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r, vr)
	}
}

// handleInitial serves the first visit: no action, no transition, the
// initial record rendered as-is. Nothing is persisted.
func (s *Server) handleInitial(w http.ResponseWriter, r *http.Request, vr *VaultRuntime) {
	s.renderScreen(w, vr, domain.NewSession(), false, false)
}

// handleAction is the main round-trip: decode the packet, load the prior
// record, run the transition, persist, journal, render.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, vr *VaultRuntime) {
	act, err := decodeAction(r)
	if err != nil {
		s.logger.Warn("malformed frame packet", zap.String("vault", vr.Vault.ID), zap.Error(err))
		http.Error(w, "malformed frame packet", http.StatusBadRequest)
		return
	}

	logger := s.logger.With(zap.String("vault", vr.Vault.ID), zap.Uint64("session", act.SessionID))

	prev, err := vr.Sessions.Load(act.SessionID)
	if err != nil {
		logger.Error("load session", zap.Error(err))
		http.Error(w, "session load failed", http.StatusInternalServerError)
		return
	}
	sess := domain.NewSession()
	if prev != nil {
		sess = *prev
	}

	// The amount screens validate against live balances; fetch them before
	// the transition so the engine stays free of I/O.
	var bal *domain.Balances
	if engine.NeedsBalances(sess.View) && sess.HasAddress() {
		bal, err = vr.Oracle.ReadBalances(r.Context(), sess.Address)
		if err != nil {
			logger.Error("balance read before transition", zap.Error(err))
			http.Error(w, "balance oracle unavailable", http.StatusBadGateway)
			return
		}
	}

	res, err := vr.Engine.Transition(sess, act, bal)
	if err != nil {
		// contract violations abort without touching the stored record
		logger.Warn("transition contract violation", zap.Error(err))
		if errors.Is(err, engine.ErrButtonOutOfRange) {
			http.Error(w, "button index out of range", http.StatusBadRequest)
		} else {
			http.Error(w, "invalid session state", http.StatusInternalServerError)
		}
		return
	}

	// Persist the computed record before rendering enrichment: a failed
	// oracle read during rendering must not lose the transition.
	if err := vr.Sessions.Save(act.SessionID, res.Session); err != nil {
		logger.Error("save session", zap.Error(err))
		http.Error(w, "session save failed", http.StatusInternalServerError)
		return
	}

	if !res.Rejected && s.Journal != nil {
		if err := s.Journal.Record(journal.Entry{
			SessionID: act.SessionID,
			Vault:     vr.Vault.ID,
			From:      sess.View,
			To:        res.Session.View,
			Button:    act.Button,
		}); err != nil {
			logger.Warn("journal transition", zap.Error(err))
		}
	}

	justApproved := sess.View == domain.ViewApproveTx &&
		res.Session.View == domain.ViewDepositTx && act.TransactionID != ""

	next := res.Session
	if balanceDependent(next.View) && next.HasAddress() {
		fresh, err := vr.Oracle.ReadBalances(r.Context(), next.Address)
		if err != nil {
			logger.Error("balance read for rendering", zap.Error(err))
			http.Error(w, "balance oracle unavailable", http.StatusBadGateway)
			return
		}
		next.Shares = fresh.Shares
		next.Assets = fresh.Assets
		next.Allowance = fresh.Allowance
		if err := vr.Sessions.Save(act.SessionID, next); err != nil {
			logger.Error("save refreshed snapshots", zap.Error(err))
			http.Error(w, "session save failed", http.StatusInternalServerError)
			return
		}
	}

	s.renderScreen(w, vr, next, res.Rejected, justApproved)
}

// balanceDependent reports whether the view shows live numbers and must
// refresh its snapshots before rendering.
func balanceDependent(view domain.View) bool {
	switch view {
	case domain.ViewAccount, domain.ViewDepositParams, domain.ViewApproveTx,
		domain.ViewDepositTx, domain.ViewDepositSuccess,
		domain.ViewWithdrawParams, domain.ViewWithdrawTx, domain.ViewWithdrawSuccess:
		return true
	}
	return false
}

func (s *Server) renderScreen(w http.ResponseWriter, vr *VaultRuntime, sess domain.Session, rejected, justApproved bool) {
	scr, err := buildScreen(vr.Vault, sess, rejected, justApproved, s.BaseURL)
	if err != nil {
		s.logger.Error("build screen", zap.String("vault", vr.Vault.ID), zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	postURL := s.BaseURL + "/vault/" + vr.Vault.ID
	var b strings.Builder
	scr.writeFrameHTML(&b, postURL, scr.imageURL(s.BaseURL, vr.Vault.ID))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// Transaction target endpoints. Amounts arrive as smallest-unit integers
// placed in the button target by the renderer.

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, vr *VaultRuntime) {
	amount, ok := queryAmount(r, "aa")
	if !ok {
		http.Error(w, "missing or invalid approval amount", http.StatusBadRequest)
		return
	}

	target, err := vr.Builder.BuildApprove(amount)
	s.writeTxTarget(w, vr, target, err)
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request, vr *VaultRuntime) {
	amount, ok := queryAmount(r, "da")
	if !ok {
		http.Error(w, "missing or invalid deposit amount", http.StatusBadRequest)
		return
	}

	target, err := vr.Builder.BuildDeposit(r.URL.Query().Get("a"), amount)
	s.writeTxTarget(w, vr, target, err)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request, vr *VaultRuntime) {
	amount, ok := queryAmount(r, "ra")
	if !ok {
		http.Error(w, "missing or invalid redeem amount", http.StatusBadRequest)
		return
	}

	target, err := vr.Builder.BuildRedeem(r.URL.Query().Get("a"), amount)
	s.writeTxTarget(w, vr, target, err)
}

func (s *Server) writeTxTarget(w http.ResponseWriter, vr *VaultRuntime, target chain.TxTarget, err error) {
	if err != nil {
		s.logger.Warn("build transaction", zap.String("vault", vr.Vault.ID), zap.Error(err))
		http.Error(w, "invalid transaction parameters", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(target); err != nil {
		s.logger.Error("encode transaction target", zap.String("vault", vr.Vault.ID), zap.Error(err))
	}
}

func queryAmount(r *http.Request, key string) (*big.Int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, false
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, false
	}
	return amount, true
}
