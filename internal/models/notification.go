package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role identifies which class of campus user an account belongs to.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleStudent:
		return RoleStudent, nil
	case RoleFaculty:
		return RoleFaculty, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Severity classifies how a notification should be presented.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// ParseSeverity validates a severity string; empty input falls back to info.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return SeverityInfo, nil
	case SeverityInfo:
		return SeverityInfo, nil
	case SeverityWarning:
		return SeverityWarning, nil
	case SeveritySuccess:
		return SeveritySuccess, nil
	}
	return "", fmt.Errorf("unknown severity %q", s)
}

// Broadcast is the reserved recipient key addressing every current and future
// user of the recipient role. A broadcast is stored as a single record;
// visibility is resolved at query time, never materialized per user.
const Broadcast = "BROADCAST"

// Sender is the cached identity of whoever created a notification.
// Immutable after creation.
type Sender struct {
	ID   string `bson:"id" json:"id"`
	Role Role   `bson:"role" json:"role"`
	Name string `bson:"name" json:"name"`
}

// Notification is one delivered alert. A targeted send to N users produces N
// independent records; a broadcast produces exactly one with RecipientKey set
// to the Broadcast sentinel.
type Notification struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title         string             `bson:"title" json:"title"`
	Message       string             `bson:"message" json:"message"`
	Severity      Severity           `bson:"severity" json:"severity"`
	Sender        Sender             `bson:"sender" json:"sender"`
	RecipientRole Role               `bson:"recipient_role" json:"recipient_role"`
	RecipientKey  string             `bson:"recipient_key" json:"recipient_key"`
	IsRead        bool               `bson:"is_read" json:"is_read"`
	ReadAt        *time.Time         `bson:"read_at,omitempty" json:"read_at,omitempty"`
	ActionLink    string             `bson:"action_link,omitempty" json:"action_link,omitempty"`
	Metadata      map[string]string  `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// IsBroadcast reports whether the record is addressed to a whole role.
func (n *Notification) IsBroadcast() bool {
	return n.RecipientKey == Broadcast
}
