package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/CampusHub/internal/models"
	"github.com/Dias221467/CampusHub/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository is the durable record store for notifications.
// All policy lives in the service layer; this type only persists and queries.
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// EnsureIndexes creates the two indexes the query paths depend on:
// (recipient_role, recipient_key, is_read) for inbox and unread counts,
// (sender.id) for sent history.
func (r *NotificationRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "recipient_role", Value: 1},
			{Key: "recipient_key", Value: 1},
			{Key: "is_read", Value: 1},
		}},
		{Keys: bson.D{{Key: "sender.id", Value: 1}}},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to create notification indexes")
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

// Insert persists a single notification and returns it with its assigned ID.
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	result, err := r.collection.InsertOne(ctx, n)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert notification")
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted notification ID")
		return nil, fmt.Errorf("unexpected inserted ID type %T", result.InsertedID)
	}
	n.ID = insertedID

	logger.Log.WithField("notification_id", n.ID.Hex()).Info("Notification inserted")
	return n, nil
}

// InsertMany persists a targeted fan-out batch and returns how many records
// were created.
func (r *NotificationRepository) InsertMany(ctx context.Context, batch []*models.Notification) (int64, error) {
	docs := make([]interface{}, 0, len(batch))
	for _, n := range batch {
		docs = append(docs, n)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert notification batch")
		return 0, fmt.Errorf("failed to insert notification batch: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(batch) {
			batch[i].ID = oid
		}
	}

	logger.Log.WithField("count", len(result.InsertedIDs)).Info("Notification batch inserted")
	return int64(len(result.InsertedIDs)), nil
}

// GetByID fetches one notification by its ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Notification, error) {
	var n models.Notification
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetInbox returns every record addressed to the user directly or broadcast to
// their role, newest first.
func (r *NotificationRepository) GetInbox(ctx context.Context, role models.Role, userID string) ([]models.Notification, error) {
	filter := bson.M{
		"recipient_role": role,
		"recipient_key":  bson.M{"$in": []string{userID, models.Broadcast}},
	}
	return r.findSorted(ctx, filter)
}

// GetBySender returns everything the given user has sent, newest first.
func (r *NotificationRepository) GetBySender(ctx context.Context, senderID string, senderRole models.Role) ([]models.Notification, error) {
	filter := bson.M{
		"sender.id":   senderID,
		"sender.role": senderRole,
	}
	return r.findSorted(ctx, filter)
}

// GetAll returns every notification, newest first.
func (r *NotificationRepository) GetAll(ctx context.Context) ([]models.Notification, error) {
	return r.findSorted(ctx, bson.M{})
}

func (r *NotificationRepository) findSorted(ctx context.Context, filter bson.M) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch notifications")
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// MarkReadVisible sets is_read on one record, but only when the record is
// visible to the caller: addressed to them, a broadcast, or targeted at the
// admin role. Returns how many records matched (0 or 1).
func (r *NotificationRepository) MarkReadVisible(ctx context.Context, id primitive.ObjectID, callerID string, at time.Time) (int64, error) {
	filter := bson.M{
		"_id": id,
		"$or": []bson.M{
			{"recipient_key": callerID},
			{"recipient_key": models.Broadcast},
			{"recipient_role": models.RoleAdmin},
		},
	}
	update := bson.M{"$set": bson.M{"is_read": true, "read_at": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to mark notification read")
		return 0, fmt.Errorf("failed to mark notification read: %w", err)
	}
	return result.MatchedCount, nil
}

// MarkAllRead sets is_read on every unread record visible to (role, userID)
// and returns how many records were updated.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, role models.Role, userID string, at time.Time) (int64, error) {
	filter := bson.M{
		"recipient_role": role,
		"recipient_key":  bson.M{"$in": []string{userID, models.Broadcast}},
		"is_read":        false,
	}
	update := bson.M{"$set": bson.M{"is_read": true, "read_at": at}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to mark all notifications read")
		return 0, fmt.Errorf("failed to mark all notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

// Delete removes a notification permanently. Deleting an absent record
// reports mongo.ErrNoDocuments.
func (r *NotificationRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("notification_id", id.Hex()).Error("Failed to delete notification")
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	logger.Log.WithField("notification_id", id.Hex()).Info("Notification deleted")
	return nil
}
