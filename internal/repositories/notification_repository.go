package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/karanveer09/unilink/backend/internal/models"
	"github.com/karanveer09/unilink/backend/internal/services"
)

// MongoNotificationRepository implements services.NotificationStore on MongoDB.
// Ids are normalized to ObjectID once at this boundary; lookups are exact.
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// EnsureIndexes creates the read-path indexes.
func (r *MongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
	})
	return err
}

// Create persists a new notification, stamping id and timestamps.
func (r *MongoNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.UserID == "" || n.Title == "" {
		return services.ErrInvalidArgument
	}
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	_, err := r.collection.InsertOne(ctx, n)
	return err
}

// GetByUser returns a user's notifications newest first. limit 0 means
// unbounded; unreadOnly narrows to is_read = false.
func (r *MongoNotificationRepository) GetByUser(ctx context.Context, userID string, limit int64, unreadOnly bool) ([]models.Notification, error) {
	if userID == "" {
		return nil, services.ErrInvalidArgument
	}

	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	var notifications []models.Notification
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// GetByID retrieves a notification by its canonical ObjectID.
func (r *MongoNotificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid notification ID format: %w", services.ErrInvalidArgument)
	}

	var n models.Notification
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkAsRead sets is_read and bumps updated_at; ErrNotFound when no record
// matches. Re-running on an already-read notification is a no-op success.
func (r *MongoNotificationRepository) MarkAsRead(ctx context.Context, id string) (*models.Notification, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid notification ID format: %w", services.ErrInvalidArgument)
	}

	update := bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}}
	var n models.Notification
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&n)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// MarkAllAsRead bulk-sets is_read for all currently-unread notifications
// owned by the user; zero matches is not an error.
func (r *MongoNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, services.ErrInvalidArgument
	}
	update := bson.M{"$set": bson.M{"is_read": true, "updated_at": time.Now()}}
	res, err := r.collection.UpdateMany(ctx, bson.M{"user_id": userID, "is_read": false}, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// SaveEnrichment writes back display fields filled by read-time enrichment.
// Last write wins; fields are idempotently recomputed, not accumulated.
func (r *MongoNotificationRepository) SaveEnrichment(ctx context.Context, n *models.Notification) error {
	set := bson.M{"updated_at": time.Now()}
	if n.OrganizerName != "" {
		set["organizer_name"] = n.OrganizerName
	}
	if n.OrganizerAvatarURL != "" {
		set["organizer_avatar_url"] = n.OrganizerAvatarURL
	}
	if n.AuthorName != "" {
		set["author_name"] = n.AuthorName
	}
	if n.AuthorAvatarURL != "" {
		set["author_avatar_url"] = n.AuthorAvatarURL
	}
	if n.PostImageURL != "" {
		set["post_image_url"] = n.PostImageURL
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": n.ID}, bson.M{"$set": set})
	return err
}
