package bridge

import (
	"net/http"

	"github.com/ConcealedGem/versa-chat-view/internal/auth"
	"github.com/ConcealedGem/versa-chat-view/internal/interfaces"
)

// LoginResponse never echoes the token back to the UI.
type LoginResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	// Released is the number of parked requests replayed by this login.
	Released int `json:"released"`
}

type AuthHandler struct {
	auth interfaces.AuthService
	gate *LoginGate
}

func NewAuthHandler(svc interfaces.AuthService, gate *LoginGate) *AuthHandler {
	return &AuthHandler{auth: svc, gate: gate}
}

// HandleLogin logs in and replays every request waiting on the login gate.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		respondWithError(w, err)
		return
	}
	if err := validateRequest(&creds); err != nil {
		respondWithError(w, err)
		return
	}

	session, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		respondWithError(w, err)
		return
	}

	released := h.gate.Release()
	respondWithJSON(w, http.StatusOK, LoginResponse{
		UserID:   session.UserID,
		Username: session.Username,
		Released: released,
	})
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}
