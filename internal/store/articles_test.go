package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeArticleCollection struct {
	docs       []interface{}
	insertErr  error
	findErr    error
	countErr   error
	count      int64
	inserted   []interface{}
	lastFilter interface{}
	lastOpts   *options.FindOptions
}

func (f *fakeArticleCollection) Find(_ context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	f.lastFilter = filter
	if len(opts) > 0 {
		f.lastOpts = opts[0]
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

func (f *fakeArticleCollection) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	f.lastFilter = filter
	return f.count, f.countErr
}

func (f *fakeArticleCollection) InsertOne(_ context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, document)
	return &mongo.InsertOneResult{InsertedID: primitive.NewObjectID()}, nil
}

func TestArticleRepositorySearchReturnsPageAndTotal(t *testing.T) {
	fake := &fakeArticleCollection{
		count: 12,
		docs: []interface{}{
			Article{Title: "First", URL: "https://example.org/1", CreatedAt: time.Now()},
			Article{Title: "Second", URL: "https://example.org/2", CreatedAt: time.Now()},
		},
	}

	repo := NewArticleRepository(fake)

	articles, total, err := repo.Search(context.Background(), "exam", 5, 5)
	if err != nil {
		t.Fatalf("expected search to succeed, got error: %v", err)
	}

	if total != 12 {
		t.Fatalf("expected total 12, got %d", total)
	}
	if len(articles) != 2 || articles[0].Title != "First" {
		t.Fatalf("unexpected articles: %+v", articles)
	}

	if fake.lastOpts == nil || fake.lastOpts.Skip == nil || *fake.lastOpts.Skip != 5 {
		t.Fatalf("expected skip 5, got %+v", fake.lastOpts)
	}
	if fake.lastOpts.Limit == nil || *fake.lastOpts.Limit != 5 {
		t.Fatalf("expected limit 5, got %+v", fake.lastOpts)
	}
}

func TestArticleRepositorySearchFilterMatchesTitleAndBody(t *testing.T) {
	filter := searchFilter("go relay")

	or, ok := filter["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("expected $or over title and body, got %+v", filter)
	}

	if len(searchFilter("")) != 0 {
		t.Fatalf("expected empty filter for empty query")
	}
}

func TestArticleRepositorySearchValidatesInput(t *testing.T) {
	repo := NewArticleRepository(&fakeArticleCollection{})

	if _, _, err := repo.Search(context.Background(), "q", 0, 0); err == nil {
		t.Fatalf("expected error for zero limit")
	}

	if _, _, err := repo.Search(nil, "q", 0, 5); err == nil {
		t.Fatalf("expected error for nil context")
	}

	var nilRepo *ArticleRepository
	if _, _, err := nilRepo.Search(context.Background(), "q", 0, 5); err == nil {
		t.Fatalf("expected error for uninitialized repository")
	}
}

func TestArticleRepositorySearchPropagatesErrors(t *testing.T) {
	errCount := errors.New("count failed")
	repo := NewArticleRepository(&fakeArticleCollection{countErr: errCount})

	if _, _, err := repo.Search(context.Background(), "q", 0, 5); !errors.Is(err, errCount) {
		t.Fatalf("expected count error, got %v", err)
	}

	errFind := errors.New("find failed")
	repo = NewArticleRepository(&fakeArticleCollection{findErr: errFind})

	if _, _, err := repo.Search(context.Background(), "q", 0, 5); !errors.Is(err, errFind) {
		t.Fatalf("expected find error, got %v", err)
	}
}

func TestArticleRepositoryInsertDefaultsCreatedAt(t *testing.T) {
	fake := &fakeArticleCollection{}
	repo := NewArticleRepository(fake)

	if err := repo.Insert(context.Background(), Article{Title: "Doc"}); err != nil {
		t.Fatalf("expected insert to succeed, got error: %v", err)
	}

	if len(fake.inserted) != 1 {
		t.Fatalf("expected 1 inserted document, got %d", len(fake.inserted))
	}

	article, ok := fake.inserted[0].(Article)
	if !ok {
		t.Fatalf("expected Article document, got %T", fake.inserted[0])
	}
	if article.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be defaulted")
	}

	if err := repo.Insert(context.Background(), Article{}); err == nil {
		t.Fatalf("expected error for missing title")
	}
}
