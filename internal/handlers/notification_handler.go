package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dias221467/CampusHub/internal/models"
	"github.com/Dias221467/CampusHub/internal/services"
	jwtutil "github.com/Dias221467/CampusHub/pkg/jwt"
	"github.com/Dias221467/CampusHub/pkg/middleware"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationHandler exposes the delivery engine over HTTP. Caller identity
// always comes from the authenticated claims, never from the request body.
type NotificationHandler struct {
	Service *services.NotificationService
}

// NewNotificationHandler creates a new instance of NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

type createNotificationRequest struct {
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Type       string            `json:"type,omitempty"`
	ActionLink string            `json:"action_link,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Recipient  struct {
		Role    string   `json:"role"`
		UserIDs []string `json:"user_ids"`
	} `json:"recipient"`
}

// CreateNotificationHandler handles POST /notifications.
func (h *NotificationHandler) CreateNotificationHandler(w http.ResponseWriter, r *http.Request) {
	caller, sender, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.WithError(err).Warn("Failed to decode create notification request")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	result, err := h.Service.Send(r.Context(), sender, services.SendRequest{
		Title:         req.Title,
		Message:       req.Message,
		Severity:      req.Type,
		RecipientRole: req.Recipient.Role,
		Targets:       req.Recipient.UserIDs,
		ActionLink:    req.ActionLink,
		Metadata:      req.Metadata,
	})
	if err != nil {
		log.WithError(err).WithField("userID", caller.UserID).Warn("Send rejected")
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if result.Broadcast {
		json.NewEncoder(w).Encode(result.Notification)
		return
	}
	json.NewEncoder(w).Encode(map[string]int64{"created": result.Created})
}

// InboxHandler handles GET /notifications/inbox for the caller's role.
func (h *NotificationHandler) InboxHandler(w http.ResponseWriter, r *http.Request) {
	caller, sender, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	inbox, err := h.Service.Inbox(r.Context(), sender.Role, caller.UserID)
	if err != nil {
		log.WithError(err).Error("Failed to fetch inbox")
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inbox)
}

// SentHistoryHandler handles GET /notifications/history.
func (h *NotificationHandler) SentHistoryHandler(w http.ResponseWriter, r *http.Request) {
	caller, sender, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	history, err := h.Service.SentHistory(r.Context(), caller.UserID, sender.Role)
	if err != nil {
		log.WithError(err).Error("Failed to fetch sent history")
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": history})
}

// MarkReadHandler handles PUT /notifications/{id}/read.
func (h *NotificationHandler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, sender, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.MarkRead(r.Context(), caller.UserID, sender.Role, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Notification marked as read"})
}

// MarkAllReadHandler handles PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	caller, sender, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.Service.MarkAllRead(r.Context(), caller.UserID, sender.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"updated": updated})
}

// DeleteNotificationHandler handles DELETE /notifications/{id}.
func (h *NotificationHandler) DeleteNotificationHandler(w http.ResponseWriter, r *http.Request) {
	caller, sender, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.Delete(r.Context(), caller.UserID, sender.Role, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Notification deleted"})
}

// AdminGetAllNotificationsHandler handles GET /admin/notifications.
func (h *NotificationHandler) AdminGetAllNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.Service.ListAll(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list notifications")
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": notifications})
}

// callerFromRequest pulls the authenticated caller triple out of the request
// context and converts it into the engine's Sender value.
func callerFromRequest(w http.ResponseWriter, r *http.Request) (*jwtutil.Claims, models.Sender, bool) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, models.Sender{}, false
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		log.WithField("role", claims.Role).Warn("Token carries unknown role")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, models.Sender{}, false
	}

	return claims, models.Sender{ID: claims.UserID, Role: role, Name: claims.Username}, true
}

// writeServiceError maps the engine's error kinds onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUnavailable):
		http.Error(w, "Storage temporarily unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
