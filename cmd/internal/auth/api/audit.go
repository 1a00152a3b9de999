package authapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/JatinVashisht1/clean-notes-backend/cmd/internal/httpx"
)

// audit writes one structured audit record for an account action. Records
// carry the client address and user agent, never credentials or tokens.
func (h *Handler) audit(r *http.Request, action, email, result string, attrs ...slog.Attr) {
	all := []slog.Attr{
		slog.String("action", action),
		slog.String("result", result),
		slog.String("email", email),
		slog.String("user_agent", strings.TrimSpace(r.UserAgent())),
	}
	if ip := httpx.ClientIP(r, h.cfg.TrustProxy); ip != nil {
		all = append(all, slog.String("ip", ip.String()))
	}
	all = append(all, attrs...)

	level := slog.LevelInfo
	if result != "ok" {
		level = slog.LevelWarn
	}
	h.log.LogAttrs(r.Context(), level, "auth.audit", all...)
}
