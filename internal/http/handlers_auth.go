package http

import (
	"errors"
	"net/http"
	"time"

	"partita/internal/core"
	"partita/internal/log"
	"partita/internal/services"
)

// userView is the outbound user shape. The password hash and reset-token
// state never leave the server.
type userView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Chart     core.Chart `json:"chart"`
	CreatedAt time.Time  `json:"createdAt"`
}

func viewUser(u *core.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Chart:     u.Chart,
		CreatedAt: u.CreatedAt,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered",
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpRegister)
	writeData(w, http.StatusCreated, viewUser(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeDomainError(w, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "User logged in",
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpLogin)
	writeData(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  viewUser(user),
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := s.auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// The token rides in the response until mail delivery lands; the reset
	// flow still enforces the 10-minute expiry and single use.
	writeData(w, http.StatusOK, map[string]string{"resetToken": token})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.auth.ResetPassword(r.Context(), req.Email, req.Token, req.Password); err != nil {
		writeDomainError(w, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Password reset completed",
		log.FieldOperation, log.OpReset)
	writeData(w, http.StatusOK, map[string]string{"status": "password updated"})
}
