package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"diarychat/pkg/token"
	"diarychat/pkg/user"
)

type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshForm struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutForm struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthHandler struct {
	Service user.ServiceInterface
	Tokens  *token.Authority
	Logger  *slog.Logger
}

type FieldError struct {
	Location string `json:"location"`
	Param    string `json:"param"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
}

func NewAuthHandler(service user.ServiceInterface, tokens *token.Authority, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		Service: service,
		Tokens:  tokens,
		Logger:  logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	u, err := h.Service.Register(req.Username, req.Password)
	if err != nil {
		if err.Error() != "user already exists" {
			h.Logger.Error("register", "error", err.Error())
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if ok := WriteResp(w, h.Logger, map[string]any{
			"errors": []FieldError{
				{
					Location: "body",
					Param:    "username",
					Value:    req.Username,
					Msg:      "already exists",
				},
			},
		}, http.StatusUnprocessableEntity); ok {
			h.Logger.Error("register", "error", err.Error())
		}
		return
	}

	h.issuePair(w, u, "register")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	u, err := h.Service.Login(req.Username, req.Password)
	if err != nil {
		var msg string
		if err.Error() == "user not found" {
			msg = "user not found"
		} else {
			msg = "invalid password"
		}
		if ok := WriteResp(w, h.Logger, map[string]any{"message": msg}, http.StatusUnauthorized); ok {
			h.Logger.Error("login", "error", "unauthorized", "username", req.Username)
		}
		return
	}

	h.issuePair(w, u, "login")
}

// Refresh exchanges a live refresh token for a fresh access token. The
// refresh token itself stays valid; it is not rotated.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	access, err := h.Tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		status := http.StatusUnauthorized
		var msg string
		switch {
		case errors.Is(err, token.ErrExpired):
			msg = "refresh token expired"
		case errors.Is(err, token.ErrRevoked):
			msg = "refresh token revoked"
		case errors.Is(err, token.ErrWrongKind):
			msg = "not a refresh token"
		case errors.Is(err, token.ErrInvalid):
			msg = "invalid refresh token"
		default:
			h.Logger.Error("refresh", "error", err)
			status = http.StatusInternalServerError
			msg = "refresh failed"
		}
		writeError(w, status, typeMessage, msg)
		return
	}

	if ok := WriteResp(w, h.Logger, map[string]any{"token": access}, http.StatusOK); ok {
		h.Logger.Info("token refreshed")
	}
}

// Logout revokes whichever tokens the client presents. Subsequent verifies
// of those exact tokens fail until their natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	if req.Token == "" && req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, typeMessage, "no token to revoke")
		return
	}

	for _, raw := range []string{req.Token, req.RefreshToken} {
		if raw == "" {
			continue
		}
		if err := h.Tokens.Revoke(r.Context(), raw); err != nil {
			if errors.Is(err, token.ErrInvalid) {
				writeError(w, http.StatusBadRequest, typeMessage, "invalid token")
				return
			}
			h.Logger.Error("logout", "error", err)
			writeError(w, http.StatusInternalServerError, typeError, "logout failed")
			return
		}
	}

	if ok := WriteResp(w, h.Logger, map[string]any{"message": "logged out"}, http.StatusOK); ok {
		h.Logger.Info("logout")
	}
}

func (h *AuthHandler) issuePair(w http.ResponseWriter, u *user.User, action string) {
	access, err := h.Tokens.IssueAccess(u.ID)
	if err != nil {
		h.Logger.Error("token signing", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	refresh, err := h.Tokens.IssueRefresh(u.ID)
	if err != nil {
		h.Logger.Error("token signing", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body := map[string]any{
		"token":         access,
		"refresh_token": refresh,
	}
	if ok := WriteResp(w, h.Logger, body, http.StatusOK); ok {
		h.Logger.Info(action, "user", u.ID)
	}
}

func DecodeJSONBody(w http.ResponseWriter, r *http.Request, req any) bool {
	if r.Header.Get("Content-Type") != "application/json" {
		writeError(w, http.StatusBadRequest, typeError, "invalid Content-Type")
		return false
	}

	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, typeError, "bad json")
		return false
	}

	return true
}

func WriteResp(w http.ResponseWriter, logger *slog.Logger, body map[string]any, status int) bool {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write JSON response", slog.Any("err", err))
		return false
	}
	return true
}
