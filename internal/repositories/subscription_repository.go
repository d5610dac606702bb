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

// MongoSubscriptionRepository implements services.SubscriptionStore on MongoDB
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new MongoSubscriptionRepository
func NewMongoSubscriptionRepository(db *mongo.Database) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{collection: db.Collection("subscriptions")}
}

// EnsureIndexes creates the uniqueness constraint that makes concurrent
// duplicate-subscribe calls safe without application-level locking.
func (r *MongoSubscriptionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, subscriptionIndexModel())
	return err
}

// subscriptionIndexModel guards post-specific subscriptions only. The index
// is partial: organizer-wide and title-scoped records carry no post_id, and
// a non-partial index would key them all as (user, organizer, null) —
// colliding an organizer-wide record with every title record for the same
// pair. Duplicates for the post_id-less scopes are prevented by the
// FindOne-first subscribe paths instead.
func subscriptionIndexModel() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "organizer_id", Value: 1},
			{Key: "post_id", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"post_id": bson.M{"$exists": true}}),
	}
}

// SubscribeToOrganizer creates an organizer-wide subscription (no post_id) if
// none exists, reactivating an inactive matching record instead of
// duplicating. Calling it twice yields the same single active record.
func (r *MongoSubscriptionRepository) SubscribeToOrganizer(ctx context.Context, userID, organizerID string) (*models.Subscription, error) {
	if userID == "" || organizerID == "" {
		return nil, services.ErrInvalidArgument
	}

	filter := bson.M{
		"user_id":      userID,
		"organizer_id": organizerID,
		"post_id":      bson.M{"$exists": false},
	}

	var existing models.Subscription
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		if existing.IsActive {
			return &existing, nil
		}
		return r.reactivate(ctx, &existing)
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:      userID,
		OrganizerID: organizerID,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	return r.insert(ctx, sub)
}

// SubscribeToPost creates a post-specific subscription; a no-op when an
// active one already exists for that (user, post).
func (r *MongoSubscriptionRepository) SubscribeToPost(ctx context.Context, userID, postID, title, organizerID, category string) (*models.Subscription, error) {
	if userID == "" || postID == "" || organizerID == "" {
		return nil, services.ErrInvalidArgument
	}

	filter := bson.M{"user_id": userID, "post_id": postID}
	var existing models.Subscription
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		if existing.IsActive {
			return &existing, nil
		}
		return r.reactivate(ctx, &existing)
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:      userID,
		OrganizerID: organizerID,
		PostID:      postID,
		Title:       title,
		Category:    category,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	return r.insert(ctx, sub)
}

// SubscribeToTitle creates a title-scoped subscription (no post_id) matching
// future posts from the organizer whose title equals title exactly.
func (r *MongoSubscriptionRepository) SubscribeToTitle(ctx context.Context, userID, title, organizerID, category string) (*models.Subscription, error) {
	if userID == "" || title == "" || organizerID == "" {
		return nil, services.ErrInvalidArgument
	}

	filter := bson.M{
		"user_id":      userID,
		"organizer_id": organizerID,
		"title":        title,
		"post_id":      bson.M{"$exists": false},
	}
	var existing models.Subscription
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		if existing.IsActive {
			return &existing, nil
		}
		return r.reactivate(ctx, &existing)
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:      userID,
		OrganizerID: organizerID,
		Title:       title,
		Category:    category,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	return r.insert(ctx, sub)
}

// UnsubscribeTitle deactivates matching title subscription(s) and reports
// whether any record changed.
func (r *MongoSubscriptionRepository) UnsubscribeTitle(ctx context.Context, userID, title, organizerID string) (bool, error) {
	if userID == "" || title == "" || organizerID == "" {
		return false, services.ErrInvalidArgument
	}

	filter := bson.M{
		"user_id":      userID,
		"organizer_id": organizerID,
		"title":        title,
		"post_id":      bson.M{"$exists": false},
		"is_active":    true,
	}
	res, err := r.collection.UpdateMany(ctx, filter, deactivateUpdate())
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// IsTitleSubscribed reports whether an active title-scoped subscription matches.
func (r *MongoSubscriptionRepository) IsTitleSubscribed(ctx context.Context, userID, organizerID, title string) (bool, error) {
	if userID == "" || title == "" || organizerID == "" {
		return false, services.ErrInvalidArgument
	}

	filter := bson.M{
		"user_id":      userID,
		"organizer_id": organizerID,
		"title":        title,
		"post_id":      bson.M{"$exists": false},
		"is_active":    true,
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Unsubscribe deactivates a subscription by id; returns false when no record
// owned by userID matches. The document is retained to preserve history.
func (r *MongoSubscriptionRepository) Unsubscribe(ctx context.Context, userID, subscriptionID string) (bool, error) {
	if userID == "" {
		return false, services.ErrInvalidArgument
	}
	objID, err := primitive.ObjectIDFromHex(subscriptionID)
	if err != nil {
		return false, fmt.Errorf("invalid subscription ID format: %w", services.ErrInvalidArgument)
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID, "user_id": userID}, deactivateUpdate())
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// UnsubscribeAllForUser deactivates every active subscription owned by the
// user. Used on logout/opt-out.
func (r *MongoSubscriptionRepository) UnsubscribeAllForUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, services.ErrInvalidArgument
	}
	res, err := r.collection.UpdateMany(ctx, bson.M{"user_id": userID, "is_active": true}, deactivateUpdate())
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// GetSubscriptionsForOrganizer lists active subscriptions targeting an
// organizer, optionally narrowed to a category.
func (r *MongoSubscriptionRepository) GetSubscriptionsForOrganizer(ctx context.Context, organizerID, category string) ([]models.Subscription, error) {
	if organizerID == "" {
		return nil, services.ErrInvalidArgument
	}
	filter := bson.M{"organizer_id": organizerID, "is_active": true}
	if category != "" {
		filter["category"] = category
	}
	return r.find(ctx, filter, nil)
}

// GetUserSubscriptions lists a user's subscriptions, newest first.
func (r *MongoSubscriptionRepository) GetUserSubscriptions(ctx context.Context, userID string, includeInactive bool) ([]models.Subscription, error) {
	if userID == "" {
		return nil, services.ErrInvalidArgument
	}
	filter := bson.M{"user_id": userID}
	if !includeInactive {
		filter["is_active"] = true
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, filter, findOptions)
}

// FindActiveByScope fetches active subscriptions matching one fan-out scope.
func (r *MongoSubscriptionRepository) FindActiveByScope(ctx context.Context, scope services.Scope) ([]models.Subscription, error) {
	filter := bson.M{"is_active": true}
	switch scope.Kind {
	case services.ScopeExactPost:
		filter["post_id"] = scope.PostID
	case services.ScopeTitle:
		filter["organizer_id"] = scope.OrganizerID
		filter["title"] = scope.Title
	case services.ScopeOrganizerWide:
		filter["organizer_id"] = scope.OrganizerID
		filter["post_id"] = bson.M{"$exists": false}
	default:
		return nil, fmt.Errorf("unknown subscription scope kind %d", scope.Kind)
	}
	return r.find(ctx, filter, nil)
}

func (r *MongoSubscriptionRepository) insert(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	sub.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, sub); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent subscribe won the race; the unique index keeps
			// the invariant, so reread the surviving record of the same scope.
			var existing models.Subscription
			if ferr := r.collection.FindOne(ctx, sameScopeFilter(sub)).Decode(&existing); ferr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return sub, nil
}

// sameScopeFilter matches exactly the scope of sub: the same post for
// post-specific records, and the same title (or absence of one) for records
// without a post_id. The reread after a duplicate-key race must never
// hand back a record of a different scope.
func sameScopeFilter(sub *models.Subscription) bson.M {
	filter := bson.M{"user_id": sub.UserID, "organizer_id": sub.OrganizerID}
	if sub.PostID != "" {
		filter["post_id"] = sub.PostID
		return filter
	}
	filter["post_id"] = bson.M{"$exists": false}
	if sub.Title != "" {
		filter["title"] = sub.Title
	} else {
		filter["title"] = bson.M{"$exists": false}
	}
	return filter
}

func (r *MongoSubscriptionRepository) reactivate(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	now := time.Now()
	update := bson.M{"$set": bson.M{"is_active": true, "updated_at": now}}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": sub.ID}, update); err != nil {
		return nil, err
	}
	sub.IsActive = true
	sub.UpdatedAt = &now
	return sub, nil
}

func (r *MongoSubscriptionRepository) find(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]models.Subscription, error) {
	var subs []models.Subscription
	var cursor *mongo.Cursor
	var err error
	if findOptions != nil {
		cursor, err = r.collection.Find(ctx, filter, findOptions)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func deactivateUpdate() bson.M {
	return bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}}
}
