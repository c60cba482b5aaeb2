// Package mongo implements repository.ContentRepository on MongoDB, the document
// store the browser client was originally built against.
//
// IDs are ObjectIDs assigned by the driver on insert and exposed as 24-char hex
// strings; anything that does not parse as one is an apperror.InvalidID.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/content-studio/internal/apperror"
	"github.com/sakif/content-studio/internal/model"
	"github.com/sakif/content-studio/internal/repository"
)

var _ repository.ContentRepository = (*Store)(nil)

const (
	collectionName = "contents"
	connectTimeout = 10 * time.Second
)

// contentDocument is the BSON shape of a record. Keeping it separate from
// model.Content means the domain type never depends on the driver.
//
// imageUrl is always written (no omitempty) so an equality filter on ""
// matches records without an image.
type contentDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Topic      string             `bson:"topic"`
	Type       string             `bson:"type"`
	Content    string             `bson:"content"`
	ImageURL   string             `bson:"imageUrl"`
	IsFavorite bool               `bson:"isFavorite"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d contentDocument) toModel() model.Content {
	return model.Content{
		ID:         d.ID.Hex(),
		Topic:      d.Topic,
		Type:       d.Type,
		Content:    d.Content,
		ImageURL:   d.ImageURL,
		IsFavorite: d.IsFavorite,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

// Store owns a client and the contents collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// New connects, pings and makes sure the indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(database).Collection(collectionName),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: creating indexes: %w", err)
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isFavorite", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "topic", Value: 1}, {Key: "type", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// parseID converts a hex string to an ObjectID or reports InvalidID.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.InvalidID("content", id)
	}
	return oid, nil
}

// newestFirst sorts on createdAt; BSON dates only keep milliseconds, so _id
// (which grows with insertion order) breaks ties.
func newestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}

func (s *Store) Create(ctx context.Context, content *model.Content) error {
	if content.CreatedAt.IsZero() {
		content.CreatedAt = time.Now()
	}
	// Round to what BSON can hold so the returned record equals the stored one.
	content.CreatedAt = content.CreatedAt.UTC().Truncate(time.Millisecond)

	doc := contentDocument{
		ID:         primitive.NewObjectID(),
		Topic:      content.Topic,
		Type:       content.Type,
		Content:    content.Content,
		ImageURL:   content.ImageURL,
		IsFavorite: content.IsFavorite,
		CreatedAt:  content.CreatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: creating content: %w", err)
	}

	content.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*model.Content, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc contentDocument
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("content", id)
		}
		return nil, fmt.Errorf("mongo: getting content %s: %w", id, err)
	}

	c := doc.toModel()
	return &c, nil
}

// duplicateQuery builds the equality/time-range filter for FindOne.
func duplicateQuery(filter repository.DuplicateFilter) bson.M {
	q := bson.M{
		"topic":     filter.Topic,
		"type":      filter.Type,
		"createdAt": bson.M{"$gt": filter.CreatedAfter.UTC()},
	}
	if filter.Content != nil {
		q["content"] = *filter.Content
	}
	if filter.ImageURL != nil {
		q["imageUrl"] = *filter.ImageURL
	}
	return q
}

func (s *Store) FindOne(ctx context.Context, filter repository.DuplicateFilter) (*model.Content, error) {
	var doc contentDocument
	err := s.coll.FindOne(ctx, duplicateQuery(filter),
		options.FindOne().SetSort(newestFirst()),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("content", filter.Topic)
		}
		return nil, fmt.Errorf("mongo: finding duplicate content: %w", err)
	}

	c := doc.toModel()
	return &c, nil
}

// listQuery builds the filter and options for List.
func listQuery(opts repository.ListOptions) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	if opts.FavoritesOnly {
		filter["isFavorite"] = true
	}

	findOpts := options.Find().SetSort(newestFirst())
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	return filter, findOpts
}

func (s *Store) List(ctx context.Context, opts repository.ListOptions) ([]model.Content, error) {
	filter, findOpts := listQuery(opts)

	cur, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: listing contents: %w", err)
	}

	var docs []contentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decoding contents: %w", err)
	}

	contents := make([]model.Content, 0, len(docs))
	for _, d := range docs {
		contents = append(contents, d.toModel())
	}
	return contents, nil
}

// Save only ever sets isFavorite.
func (s *Store) Save(ctx context.Context, content *model.Content) error {
	oid, err := parseID(content.ID)
	if err != nil {
		return err
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"isFavorite": content.IsFavorite}},
	)
	if err != nil {
		return fmt.Errorf("mongo: saving content %s: %w", content.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("content", content.ID)
	}
	return nil
}
