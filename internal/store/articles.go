package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Article is one searchable entry in the articles collection.
type Article struct {
	Title     string    `bson:"title" json:"title"`
	URL       string    `bson:"url" json:"url"`
	Body      string    `bson:"body" json:"body"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type articleCollection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// ArticleRepository searches and persists articles in MongoDB.
type ArticleRepository struct {
	collection articleCollection
}

// NewArticleRepository constructs an ArticleRepository.
func NewArticleRepository(collection articleCollection) *ArticleRepository {
	return &ArticleRepository{collection: collection}
}

// Insert stores an article, defaulting CreatedAt to now.
func (r *ArticleRepository) Insert(ctx context.Context, article Article) error {
	if r == nil || r.collection == nil {
		return errors.New("article repository is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	if article.Title == "" {
		return errors.New("title is required")
	}

	if article.CreatedAt.IsZero() {
		article.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}

	if _, err := r.collection.InsertOne(ctx, article); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}

	return nil
}

// Search returns one page of articles whose title or body matches the query
// (case-insensitive substring), newest first, together with the total match
// count for pagination.
func (r *ArticleRepository) Search(ctx context.Context, query string, skip, limit int64) ([]Article, int64, error) {
	if r == nil || r.collection == nil {
		return nil, 0, errors.New("article repository is not initialized")
	}
	if ctx == nil {
		return nil, 0, errors.New("context is required")
	}
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		return nil, 0, errors.New("limit must be greater than 0")
	}

	filter := searchFilter(query)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("find articles: %w", err)
	}
	defer cursor.Close(ctx)

	var articles []Article
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, 0, fmt.Errorf("decode articles: %w", err)
	}

	return articles, total, nil
}

func searchFilter(query string) bson.M {
	if query == "" {
		return bson.M{}
	}

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}

	return bson.M{
		"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"body": pattern},
		},
	}
}
