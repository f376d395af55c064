package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/UkralStul/social-feed-service/internal/domain"
	"github.com/UkralStul/social-feed-service/internal/session"
	"github.com/go-chi/chi/v5"
)

type postRequest struct {
	Text string `json:"post"`
}

type likeRequest struct {
	PostAuthorID string `json:"postAuthorId"`
}

type commentRequest struct {
	Text         string `json:"commentText"`
	PostAuthorID string `json:"postAuthorId"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getFeed(w http.ResponseWriter, r *http.Request) {
	mode := domain.ParseFeedMode(r.URL.Query().Get("mode"))
	views, err := h.svc.ComposeFeed(r.Context(), mode, session.ViewerID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetPost(r.Context(), chi.URLParam(r, "id"), session.ViewerID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) postExists(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.PostExists(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"exists": ok})
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	post, err := h.svc.CreatePost(r.Context(), session.ViewerID(r.Context()), req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, post)
}

func (h *Handler) editPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.svc.EditPost(r.Context(), session.ViewerID(r.Context()), chi.URLParam(r, "id"), req.Text); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Post updated"})
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, domain.KindPost)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, domain.KindComment)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, kind domain.DeleteKind) {
	if err := h.svc.DeletePost(r.Context(), session.ViewerID(r.Context()), chi.URLParam(r, "id"), kind); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	// тело необязательно: автор поста берётся из записи поста
	var req likeRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, err)
		return
	}
	res, err := h.svc.ToggleLike(r.Context(), session.ViewerID(r.Context()), chi.URLParam(r, "id"), req.PostAuthorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListComments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handler) createComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	comment, err := h.svc.CreateComment(r.Context(), session.ViewerID(r.Context()), chi.URLParam(r, "id"), req.Text, req.PostAuthorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, comment)
}

func (h *Handler) editComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.svc.EditComment(r.Context(), session.ViewerID(r.Context()), chi.URLParam(r, "id"), req.Text); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Comment updated"})
}

func (h *Handler) getNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.Notifications(r.Context(), session.ViewerID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.svc.UserCategory(r.Context(), session.ViewerID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"category": category})
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	return nil
}

// statusFor переводит ошибку сервиса в HTTP-статус и текст для клиента.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUserNotFound):
		return http.StatusUnauthorized, "User not authenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrRetrieval):
		return http.StatusInternalServerError, domain.ErrRetrieval.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, domain.ErrRetrieval.Error()
	}
}

func respondError(w http.ResponseWriter, err error) {
	code, msg := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	respondJSON(w, code, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
