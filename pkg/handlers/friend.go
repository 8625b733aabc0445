package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"diarychat/pkg/friend"
)

// FriendHandler is the thin glue around the friendship repository. The chat
// core only ever consults Authorize; these endpoints exist so relationships
// (and their room ids) can be created at all.
type FriendHandler struct {
	Repo   friend.Repository
	Logger *slog.Logger
}

func NewFriendHandler(repo friend.Repository, logger *slog.Logger) *FriendHandler {
	return &FriendHandler{Repo: repo, Logger: logger}
}

func (h *FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	friendID, ok := mux.Vars(r)[muxVarFriendID]
	if !ok {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid friend id")
		return
	}
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Request(userID, friendID); err != nil {
		h.Logger.Error("friend request", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "request failed")
		return
	}

	WriteResp(w, h.Logger, map[string]any{"message": "requested"}, http.StatusOK)
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	friendID, ok := mux.Vars(r)[muxVarFriendID]
	if !ok {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid friend id")
		return
	}
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	roomID, err := h.Repo.Accept(userID, friendID)
	if err != nil {
		if errors.Is(err, friend.ErrNotFriends) {
			writeError(w, http.StatusNotFound, typeMessage, "no pending request")
			return
		}
		h.Logger.Error("friend accept", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "accept failed")
		return
	}

	WriteResp(w, h.Logger, map[string]any{"room_id": roomID}, http.StatusOK)
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	friendID, ok := mux.Vars(r)[muxVarFriendID]
	if !ok {
		writeError(w, http.StatusBadRequest, typeMessage, "invalid friend id")
		return
	}
	userID, ok := getUserIDFromContext(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Remove(userID, friendID); err != nil {
		h.Logger.Error("friend remove", "error", err)
		writeError(w, http.StatusInternalServerError, typeError, "remove failed")
		return
	}

	WriteResp(w, h.Logger, map[string]any{"message": "removed"}, http.StatusOK)
}
