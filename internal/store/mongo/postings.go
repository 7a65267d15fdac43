package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/claudel/offrebot/internal/domain"
)

// postingDoc is the stored shape of a posting.
type postingDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title,omitempty"`
	Company     string        `bson:"company,omitempty"`
	Location    string        `bson:"location,omitempty"`
	Description string        `bson:"description,omitempty"`
	URL         string        `bson:"url,omitempty"`
	Category    string        `bson:"category"`
	CreatedAt   time.Time     `bson:"created_at"`
	IsNotified  bool          `bson:"is_notified"`
	NotifiedAt  time.Time     `bson:"notified_at,omitempty"`
}

func (d postingDoc) toDomain() domain.Posting {
	return domain.Posting{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Company:     d.Company,
		Location:    d.Location,
		Description: d.Description,
		URL:         d.URL,
		Category:    d.Category,
		CreatedAt:   d.CreatedAt,
		IsNotified:  d.IsNotified,
		NotifiedAt:  d.NotifiedAt,
	}
}

// PostingRepo queries and updates the postings collection.
type PostingRepo struct {
	coll *mongo.Collection
}

func NewPostingRepo(db *mongo.Database) *PostingRepo {
	return &PostingRepo{coll: db.Collection(collPostings)}
}

// FindByCategory returns one page of postings for a category plus the
// total match count. Ordering is created_at descending with _id as
// tie-break, so equal timestamps keep a total order across pages.
func (r *PostingRepo) FindByCategory(ctx context.Context, category string, page, pageSize int) ([]domain.Posting, int64, error) {
	filter := bson.M{"category": category}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count postings: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: -1},
		}).
		SetSkip(int64(page) * int64(pageSize)).
		SetLimit(int64(pageSize))

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find postings: %w", err)
	}

	var docs []postingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode postings: %w", err)
	}

	postings := make([]domain.Posting, 0, len(docs))
	for _, d := range docs {
		postings = append(postings, d.toDomain())
	}
	return postings, total, nil
}

// FindUnnotified returns postings the dispatcher has not processed
// yet, oldest first.
func (r *PostingRepo) FindUnnotified(ctx context.Context) ([]domain.Posting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := r.coll.Find(ctx, bson.M{"is_notified": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find unnotified postings: %w", err)
	}

	var docs []postingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode unnotified postings: %w", err)
	}

	postings := make([]domain.Posting, 0, len(docs))
	for _, d := range docs {
		postings = append(postings, d.toDomain())
	}
	return postings, nil
}

// MarkNotified flips is_notified to true and stamps notified_at. The
// update is a plain $set, so calling it twice is harmless.
func (r *PostingRepo) MarkNotified(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid posting id %q: %w", id, err)
	}

	update := bson.M{"$set": bson.M{
		"is_notified": true,
		"notified_at": time.Now().UTC(),
	}}
	if _, err := r.coll.UpdateByID(ctx, oid, update); err != nil {
		return fmt.Errorf("failed to mark posting %s notified: %w", id, err)
	}
	return nil
}
