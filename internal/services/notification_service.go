package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dias221467/CampusHub/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationStore is the persistence surface the delivery engine relies on.
// Implemented by repository.NotificationRepository; tests substitute an
// in-memory store.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) (*models.Notification, error)
	InsertMany(ctx context.Context, batch []*models.Notification) (int64, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error)
	GetInbox(ctx context.Context, role models.Role, userID string) ([]models.Notification, error)
	GetBySender(ctx context.Context, senderID string, senderRole models.Role) ([]models.Notification, error)
	MarkReadVisible(ctx context.Context, id primitive.ObjectID, callerID string, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, role models.Role, userID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	GetAll(ctx context.Context) ([]models.Notification, error)
}

// NotificationService is the delivery engine: it validates send requests
// against the role matrix, fans them out into records, and answers the
// inbox/history/read-state queries. All caller identity arrives explicitly;
// the engine never reads ambient request state.
type NotificationService struct {
	store NotificationStore
}

// NewNotificationService creates a new instance of NotificationService.
func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// storeTimeout bounds every storage round-trip. A hung backend surfaces as
// ErrUnavailable through storeErr instead of blocking the request.
const storeTimeout = 5 * time.Second

func boundedCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// SendRequest is one send operation, broadcast or targeted. Targets containing
// the models.Broadcast sentinel signals a broadcast to the whole recipient role.
type SendRequest struct {
	Title         string
	Message       string
	Severity      string
	RecipientRole string
	Targets       []string
	ActionLink    string
	Metadata      map[string]string
}

// SendResult reports what a Send persisted. Notification is set only for
// broadcasts; targeted sends report a count and callers re-query for ids.
type SendResult struct {
	Broadcast    bool
	Created      int64
	Notification *models.Notification
}

// Send validates the request against the authorization matrix and fans it out:
// one record for a broadcast, one record per target id otherwise.
func (s *NotificationService) Send(ctx context.Context, sender models.Sender, req SendRequest) (*SendResult, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: title and message are required", ErrInvalidRequest)
	}
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrInvalidRequest)
	}

	targetRole, err := models.ParseRole(req.RecipientRole)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	severity, err := models.ParseSeverity(req.Severity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	broadcast := false
	for _, t := range req.Targets {
		if t == models.Broadcast {
			broadcast = true
			break
		}
	}

	if err := CanSend(sender.Role, targetRole, broadcast); err != nil {
		logrus.WithFields(logrus.Fields{
			"sender_id":   sender.ID,
			"sender_role": sender.Role,
			"target_role": targetRole,
			"broadcast":   broadcast,
		}).Warn("Send denied by authorization matrix")
		return nil, err
	}

	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	base := models.Notification{
		Title:         strings.TrimSpace(req.Title),
		Message:       strings.TrimSpace(req.Message),
		Severity:      severity,
		Sender:        sender,
		RecipientRole: targetRole,
		ActionLink:    req.ActionLink,
		Metadata:      req.Metadata,
		CreatedAt:     time.Now(),
	}

	if broadcast {
		n := base
		n.RecipientKey = models.Broadcast
		created, err := s.store.Insert(ctx, &n)
		if err != nil {
			return nil, storeErr(err, "insert broadcast notification")
		}
		logrus.WithFields(logrus.Fields{
			"notification_id": created.ID.Hex(),
			"recipient_role":  targetRole,
		}).Info("Broadcast notification created")
		return &SendResult{Broadcast: true, Created: 1, Notification: created}, nil
	}

	batch := make([]*models.Notification, 0, len(req.Targets))
	for _, target := range req.Targets {
		if strings.TrimSpace(target) == "" {
			return nil, fmt.Errorf("%w: recipient id cannot be empty", ErrInvalidRequest)
		}
		n := base
		n.RecipientKey = target
		batch = append(batch, &n)
	}

	count, err := s.store.InsertMany(ctx, batch)
	if err != nil {
		return nil, storeErr(err, "insert targeted notifications")
	}
	logrus.WithFields(logrus.Fields{
		"recipient_role": targetRole,
		"created":        count,
	}).Info("Targeted notifications created")
	return &SendResult{Created: count}, nil
}

// InboxResult is a caller's inbox: records addressed to them directly plus
// every broadcast for their role, newest first.
type InboxResult struct {
	Unread int64                 `json:"unread"`
	Data   []models.Notification `json:"data"`
}

// Inbox returns all records visible to (role, userID) with a derived unread count.
func (s *NotificationService) Inbox(ctx context.Context, role models.Role, userID string) (*InboxResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: caller id is required", ErrInvalidRequest)
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	items, err := s.store.GetInbox(ctx, role, userID)
	if err != nil {
		return nil, storeErr(err, "fetch inbox")
	}

	result := &InboxResult{Data: items}
	if result.Data == nil {
		// An empty inbox still serializes as a list, not null.
		result.Data = make([]models.Notification, 0)
	}
	for i := range items {
		if !items[i].IsRead {
			result.Unread++
		}
	}
	return result, nil
}

// SentItem is a sent-history entry reshaped for display. ToWhom carries the
// literal broadcast sentinel so the UI can render "ALL <ROLE>".
type SentItem struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Severity models.Severity   `json:"severity"`
	ByWhom   string            `json:"by_whom"`
	ToWhom   string            `json:"to_whom"`
	ToRole   models.Role       `json:"to_role"`
	When     time.Time         `json:"when"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SentHistory returns everything (callerID, callerRole) has sent, newest first.
func (s *NotificationService) SentHistory(ctx context.Context, callerID string, callerRole models.Role) ([]SentItem, error) {
	if callerID == "" {
		return nil, fmt.Errorf("%w: caller id is required", ErrInvalidRequest)
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	items, err := s.store.GetBySender(ctx, callerID, callerRole)
	if err != nil {
		return nil, storeErr(err, "fetch sent history")
	}

	history := make([]SentItem, 0, len(items))
	for _, n := range items {
		status := "unread"
		if n.IsRead {
			status = "read"
		}
		history = append(history, SentItem{
			ID:       n.ID.Hex(),
			Title:    n.Title,
			Message:  n.Message,
			Severity: n.Severity,
			ByWhom:   n.Sender.Name,
			ToWhom:   n.RecipientKey,
			ToRole:   n.RecipientRole,
			When:     n.CreatedAt,
			Status:   status,
			Metadata: n.Metadata,
		})
	}
	return history, nil
}

// MarkRead marks one record read if it is visible to the caller: addressed to
// them directly, a broadcast, or an admin-targeted record. Absent and
// not-visible are both reported as ErrNotFound so existence never leaks.
// Safe to retry: a second call matches the same record and changes nothing.
func (s *NotificationService) MarkRead(ctx context.Context, callerID string, callerRole models.Role, id primitive.ObjectID) error {
	if callerID == "" {
		return fmt.Errorf("%w: caller id is required", ErrInvalidRequest)
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	matched, err := s.store.MarkReadVisible(ctx, id, callerID, time.Now())
	if err != nil {
		return storeErr(err, "mark notification read")
	}
	if matched == 0 {
		return fmt.Errorf("%w: notification %s", ErrNotFound, id.Hex())
	}
	logrus.WithFields(logrus.Fields{
		"notification_id": id.Hex(),
		"caller_id":       callerID,
		"caller_role":     callerRole,
	}).Info("Notification marked as read")
	return nil
}

// MarkAllRead marks every unread record visible to the caller as read.
// Matching nothing is a success, not an error.
func (s *NotificationService) MarkAllRead(ctx context.Context, callerID string, callerRole models.Role) (int64, error) {
	if callerID == "" {
		return 0, fmt.Errorf("%w: caller id is required", ErrInvalidRequest)
	}
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	updated, err := s.store.MarkAllRead(ctx, callerRole, callerID, time.Now())
	if err != nil {
		return 0, storeErr(err, "mark all notifications read")
	}
	return updated, nil
}

// Delete permanently removes a record. Only the original sender may delete it;
// admin callers override the ownership check. There is no soft delete.
func (s *NotificationService) Delete(ctx context.Context, callerID string, callerRole models.Role, id primitive.ObjectID) error {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		return storeErr(err, "load notification")
	}
	if n.Sender.ID != callerID && callerRole != models.RoleAdmin {
		logrus.WithFields(logrus.Fields{
			"notification_id": id.Hex(),
			"caller_id":       callerID,
			"sender_id":       n.Sender.ID,
		}).Warn("Delete attempt by non-owner")
		return fmt.Errorf("%w: only the sender can delete a notification", ErrForbidden)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return storeErr(err, "delete notification")
	}
	logrus.WithField("notification_id", id.Hex()).Info("Notification deleted")
	return nil
}

// ListAll returns every record in the store, newest first. Admin tooling only;
// the HTTP layer gates it behind the admin role.
func (s *NotificationService) ListAll(ctx context.Context) ([]models.Notification, error) {
	ctx, cancel := boundedCtx(ctx)
	defer cancel()

	items, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, storeErr(err, "list notifications")
	}
	if items == nil {
		items = make([]models.Notification, 0)
	}
	return items, nil
}

// storeErr folds storage failures into the core's error kinds: missing
// documents become ErrNotFound, everything else (timeouts, lost connections)
// becomes ErrUnavailable for the caller to retry.
func storeErr(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: failed to %s: %v", ErrUnavailable, op, err)
}
