package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/identity"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/guard"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/auth/session"
	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/httpx"
)

// Handler wires the account endpoints to the session service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
	guard    *guard.Guard
}

func NewHandler(log *slog.Logger, sessions *session.Service, g *guard.Guard, cfg Config) (*Handler, error) {
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}
	if g == nil {
		return nil, errors.New("authapi: nil guard")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	return &Handler{log: log, cfg: cfg, sessions: sessions, guard: g}, nil
}

// Register wires account routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/api/users/signup", h.handleSignUp)
	mux.HandleFunc("/api/users/signin", h.handleSignIn)
	mux.Handle("/api/users/signout", h.guard.Wrap(h.handleSignOut))
	mux.Handle("/api/users/me", h.guard.Wrap(h.handleMe))
	mux.Handle("/api/users/password", h.guard.Wrap(h.handleChangePassword))
	mux.Handle("/api/users", h.guard.Wrap(h.handleDeleteAccount))
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := h.sessions.SignUp(r.Context(), session.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.audit(r, "signup", req.Email, "fail", slog.String("reason", reasonOf(err)))
		h.writeServiceError(w, r, "auth.signup.fail", err)
		return
	}
	h.audit(r, "signup", req.Email, "ok")
	httpx.WriteJSON(w, http.StatusCreated, tokenResponse{
		Success:   true,
		Message:   "account created",
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}
	var req credentialsRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := h.sessions.SignIn(r.Context(), session.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		h.audit(r, "signin", req.Email, "fail", slog.String("reason", reasonOf(err)))
		h.writeServiceError(w, r, "auth.signin.fail", err)
		return
	}
	h.audit(r, "signin", req.Email, "ok")
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		Success:   true,
		Message:   "signed in",
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w, http.MethodPost)
		return
	}
	p, ok := guard.PrincipalFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	if err := h.sessions.SignOut(r.Context(), p.Email, p.Token); err != nil {
		h.audit(r, "signout", p.Email, "fail", slog.String("reason", reasonOf(err)))
		h.writeServiceError(w, r, "auth.signout.fail", err)
		return
	}
	h.audit(r, "signout", p.Email, "ok", slog.String("token_id", p.TokenID))
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: "signed out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.MethodNotAllowed(w, http.MethodGet)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())

	acct, err := h.sessions.Account(r.Context(), p.Email)
	if err != nil {
		h.writeServiceError(w, r, "auth.me.fail", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, meResponse{
		Success: true,
		User: userResponse{
			ID:         acct.ID,
			Email:      acct.Email,
			FromGoogle: acct.FromGoogle,
			CreatedAt:  acct.CreatedAt,
		},
	})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		httpx.MethodNotAllowed(w, http.MethodPut)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), p.Email, req.CurrentPassword, req.NewPassword); err != nil {
		h.audit(r, "password_change", p.Email, "fail", slog.String("reason", reasonOf(err)))
		h.writeServiceError(w, r, "auth.password_change.fail", err)
		return
	}
	h.audit(r, "password_change", p.Email, "ok")
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: "password updated"})
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httpx.MethodNotAllowed(w, http.MethodDelete)
		return
	}
	p, _ := guard.PrincipalFromContext(r.Context())
	var req deleteAccountRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.sessions.DeleteAccount(r.Context(), p.Email, req.Password); err != nil {
		h.audit(r, "account_delete", p.Email, "fail", slog.String("reason", reasonOf(err)))
		h.writeServiceError(w, r, "auth.account_delete.fail", err)
		return
	}
	h.audit(r, "account_delete", p.Email, "ok")
	httpx.WriteJSON(w, http.StatusOK, messageResponse{Success: true, Message: "account deleted"})
}

// decode reads and validates the body, answering 400 itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(w, r, h.cfg.MaxBodyBytes, dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return false
	}
	if n, ok := dst.(interface{ normalize() }); ok {
		n.normalize()
	}
	if err := httpx.ValidateStruct(dst); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return false
	}
	return true
}

// writeServiceError maps session and identity errors onto HTTP responses.
// Credential failures share one message whatever check failed.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var verr *session.ValidationError
	switch {
	case errors.As(err, &verr):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", verr.Error())
	case errors.Is(err, session.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email/password")
	case errors.Is(err, session.ErrGoogleAccount):
		httpx.WriteError(w, http.StatusForbidden, "google_account", "this account signs in with google")
	case identity.IsConflict(err):
		httpx.WriteError(w, http.StatusConflict, "conflict", "an account with this email already exists")
	case identity.IsNotFound(err):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "account not found")
	case identity.IsInvalidInput(err):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		h.log.ErrorContext(r.Context(), msg, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, session.ErrValidation):
		return "invalid"
	case errors.Is(err, session.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, session.ErrGoogleAccount):
		return "google_account"
	case identity.IsConflict(err):
		return "conflict"
	case identity.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
