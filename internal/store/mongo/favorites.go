package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/claudel/offrebot/internal/domain"
)

// favoriteDoc is the stored shape: one document per user holding the
// full category set.
type favoriteDoc struct {
	UserID     string    `bson:"user_id"`
	Categories []string  `bson:"categories"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// FavoriteRepo manages per-user category subscriptions.
type FavoriteRepo struct {
	coll *mongo.Collection
}

func NewFavoriteRepo(db *mongo.Database) *FavoriteRepo {
	return &FavoriteRepo{coll: db.Collection(collFavorites)}
}

// Get returns the user's favorite record. A user with no record yet
// gets an empty favorite, not an error.
func (r *FavoriteRepo) Get(ctx context.Context, user string) (domain.Favorite, error) {
	var doc favoriteDoc
	err := r.coll.FindOne(ctx, bson.M{"user_id": user}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Favorite{UserID: user}, nil
		}
		return domain.Favorite{}, fmt.Errorf("failed to get favorites for %s: %w", user, err)
	}
	return domain.Favorite{
		UserID:     doc.UserID,
		Categories: doc.Categories,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

// Toggle flips membership of category in the user's set and returns
// the updated favorite. The record is created on first toggle and only
// ever emptied afterwards, never deleted.
func (r *FavoriteRepo) Toggle(ctx context.Context, user, category string) (domain.Favorite, error) {
	fav, err := r.Get(ctx, user)
	if err != nil {
		return domain.Favorite{}, err
	}

	now := time.Now().UTC()
	var update bson.M
	if fav.Subscribed(category) {
		update = bson.M{
			"$pull": bson.M{"categories": category},
			"$set":  bson.M{"updated_at": now},
		}
		next := make([]string, 0, len(fav.Categories))
		for _, c := range fav.Categories {
			if c != category {
				next = append(next, c)
			}
		}
		fav.Categories = next
	} else {
		update = bson.M{
			"$addToSet": bson.M{"categories": category},
			"$set":      bson.M{"updated_at": now},
		}
		fav.Categories = append(fav.Categories, category)
	}

	_, err = r.coll.UpdateOne(ctx, bson.M{"user_id": user}, update,
		options.UpdateOne().SetUpsert(true))
	if err != nil {
		return domain.Favorite{}, fmt.Errorf("failed to toggle favorite for %s: %w", user, err)
	}

	fav.UpdatedAt = now
	return fav, nil
}

// SubscribersFor returns the user ids subscribed to a category.
func (r *FavoriteRepo) SubscribersFor(ctx context.Context, category string) ([]string, error) {
	cur, err := r.coll.Find(ctx, bson.M{"categories": category})
	if err != nil {
		return nil, fmt.Errorf("failed to find subscribers for %s: %w", category, err)
	}

	var docs []favoriteDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode subscribers: %w", err)
	}

	users := make([]string, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.UserID)
	}
	return users, nil
}
