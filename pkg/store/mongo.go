package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/cardsmith/pkg/cache"
	"github.com/matzehuels/cardsmith/pkg/errors"
	"github.com/matzehuels/cardsmith/pkg/template"
)

// Mongo defaults.
const (
	DefaultMongoDatabase = "cardsmith"
	templatesCollection  = "templates"
	mongoConnectTimeout  = 10 * time.Second
)

// MongoStore keeps one document per template version in the "templates"
// collection, with a unique index on (slug, version).
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	backoff cache.Backoff
}

// templateDoc is the stored form of one version. The design is kept as the
// template's own JSON so element variants round-trip through one codec.
type templateDoc struct {
	Slug       string    `bson:"slug"`
	Version    int       `bson:"version"`
	Name       string    `bson:"name"`
	Category   string    `bson:"category,omitempty"`
	Tags       []string  `bson:"tags,omitempty"`
	IsActive   bool      `bson:"isActive"`
	IsFeatured bool      `bson:"isFeatured"`
	Design     string    `bson:"design"`
	CreatedAt  time.Time `bson:"createdAt"`
}

// NewMongoStore connects to uri, pings the server and ensures the
// (slug, version) index. An empty database selects [DefaultMongoDatabase].
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetConnectTimeout(mongoConnectTimeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}

	s := NewMongoStoreFromClient(client, database)
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}, {Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("slug_version"),
	}
	if _, err := s.coll.Indexes().CreateOne(ctx, index); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "create template index")
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. It does not create
// indexes.
func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client:  client,
		coll:    client.Database(database).Collection(templatesCollection),
		backoff: cache.DefaultBackoff,
	}
}

func (s *MongoStore) Get(ctx context.Context, id string) (template.Template, error) {
	if err := errors.ValidateSlug(id); err != nil {
		return template.Template{}, err
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	t, err := s.findOne(ctx, bson.M{"slug": id}, opts)
	if err == mongo.ErrNoDocuments {
		return template.Template{}, notFound(id)
	}
	return t, err
}

func (s *MongoStore) GetVersion(ctx context.Context, id string, version int) (template.Template, error) {
	if err := errors.ValidateSlug(id); err != nil {
		return template.Template{}, err
	}
	t, err := s.findOne(ctx, bson.M{"slug": id, "version": version})
	if err != mongo.ErrNoDocuments {
		return t, err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return template.Template{}, err
	}
	return template.Template{}, versionNotFound(id, version)
}

func (s *MongoStore) Save(ctx context.Context, t template.Template) error {
	latest := 0
	switch cur, err := s.Get(ctx, t.ID); {
	case err == nil:
		latest = cur.Version
	case !errors.IsNotFound(err):
		return err
	}
	if err := checkSave(t, latest); err != nil {
		return err
	}

	doc, err := toDoc(t, time.Now().UTC())
	if err != nil {
		return err
	}
	err = s.retry(ctx, func() error {
		_, err := s.coll.InsertOne(ctx, doc)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return errors.New(errors.ErrCodeVersionConflict, "template %q version %d already exists", t.ID, t.Version)
	}
	return err
}

// List reads every version sorted by slug and newest first, keeps the head
// of each slug and filters in process, so a filter never matches an old
// version whose successor no longer qualifies.
func (s *MongoStore) List(ctx context.Context, f Filter) ([]template.Template, error) {
	opts := options.Find().SetSort(bson.D{{Key: "slug", Value: 1}, {Key: "version", Value: -1}})

	var docs []templateDoc
	err := s.retry(ctx, func() error {
		cur, err := s.coll.Find(ctx, bson.M{}, opts)
		if err != nil {
			return err
		}
		docs = docs[:0]
		return cur.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	latest := make([]template.Template, 0, len(docs))
	for i, d := range docs {
		if i > 0 && docs[i-1].Slug == d.Slug {
			continue
		}
		t, err := fromDoc(d)
		if err != nil {
			return nil, err
		}
		latest = append(latest, t)
	}
	return filterSorted(latest, f), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (template.Template, error) {
	var doc templateDoc
	err := s.retry(ctx, func() error {
		return s.coll.FindOne(ctx, filter, opts...).Decode(&doc)
	})
	if err != nil {
		return template.Template{}, err
	}
	return fromDoc(doc)
}

// retry runs fn with backoff on network errors. mongo.ErrNoDocuments and
// duplicate key errors pass through untouched; other failures become
// NETWORK_ERROR.
func (s *MongoStore) retry(ctx context.Context, fn func() error) error {
	err := cache.RetryWithBackoff(ctx, s.backoff, func() error {
		err := fn()
		if err != nil && (mongo.IsNetworkError(err) || mongo.IsTimeout(err)) {
			return cache.Retryable(err)
		}
		return err
	})

	var re *cache.RetryableError
	switch {
	case err == nil, err == mongo.ErrNoDocuments, mongo.IsDuplicateKeyError(err):
		return err
	case stderrors.As(err, &re):
		return errors.Wrap(errors.ErrCodeNetwork, re.Err, "mongodb unavailable")
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "mongodb")
}

func toDoc(t template.Template, now time.Time) (templateDoc, error) {
	design, err := json.Marshal(t.Design)
	if err != nil {
		return templateDoc{}, errors.Wrap(errors.ErrCodeInternal, err, "encode design of %q", t.ID)
	}
	return templateDoc{
		Slug:       t.ID,
		Version:    t.Version,
		Name:       t.Name,
		Category:   t.Category,
		Tags:       t.Tags,
		IsActive:   t.IsActive,
		IsFeatured: t.IsFeatured,
		Design:     string(design),
		CreatedAt:  now,
	}, nil
}

func fromDoc(d templateDoc) (template.Template, error) {
	t := template.Template{
		ID:         d.Slug,
		Name:       d.Name,
		Category:   d.Category,
		Tags:       d.Tags,
		IsActive:   d.IsActive,
		IsFeatured: d.IsFeatured,
		Version:    d.Version,
	}
	if err := json.Unmarshal([]byte(d.Design), &t.Design); err != nil {
		return template.Template{}, errors.Wrap(errors.ErrCodeInternal, err, "decode design of %q v%d", d.Slug, d.Version)
	}
	return t, nil
}
