// Package store provides MongoDB persistence for leads and ingestion runs.
//
// Collections (database configurable, default "gra"):
//   - leads        – scraped leads; normalized_phone is unique when present
//   - users        – onboarded users, read only here (phone_number lookups)
//   - scrape_runs  – one document per ingestion run (TTL: 90 days)
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/saruni-spec/GRA/internal/domain"
)

const (
	DefaultDatabase = "gra"

	leadsCollection = "leads"
	usersCollection = "users"
	runsCollection  = "scrape_runs"

	runTTLDays = 90
)

// ErrDuplicatePhone is returned by CreateLead when another lead already
// owns the normalized phone.
var ErrDuplicatePhone = eris.New("store: normalized phone already exists")

// Client wraps a MongoDB client.
type Client struct {
	mc  *mongo.Client
	mdb *mongo.Database
}

// New connects to MongoDB and returns a store Client.
func New(ctx context.Context, uri, database string) (*Client, error) {
	if database == "" {
		database = DefaultDatabase
	}
	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, eris.Wrap(err, "store: mongo connect")
	}
	if err := mc.Ping(ctx, nil); err != nil {
		_ = mc.Disconnect(ctx)
		return nil, eris.Wrap(err, "store: mongo ping")
	}

	c := &Client{mc: mc, mdb: mc.Database(database)}
	if err := c.ensureIndices(ctx); err != nil {
		_ = mc.Disconnect(ctx)
		return nil, err
	}
	return c, nil
}

// Disconnect cleanly closes the MongoDB connection.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.mc.Disconnect(ctx)
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.mc.Ping(ctx, nil)
}

func (c *Client) ensureIndices(ctx context.Context) error {
	// leads: unique phone (only documents that have one), listing order, job lookup
	lc := c.mdb.Collection(leadsCollection)
	if _, err := lc.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "normalized_phone", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"normalized_phone": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{
				{Key: "confidence_score", Value: -1},
				{Key: "scraped_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "job_id", Value: 1}},
		},
	}); err != nil {
		return eris.Wrap(err, "store: leads indices")
	}

	uc := c.mdb.Collection(usersCollection)
	if _, err := uc.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "phone_number", Value: 1}},
	}); err != nil {
		return eris.Wrap(err, "store: users indices")
	}

	rc := c.mdb.Collection(runsCollection)
	if _, err := rc.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(runTTLDays * 24 * 3600)),
		},
		{
			Keys: bson.D{{Key: "job_id", Value: 1}},
		},
	}); err != nil {
		return eris.Wrap(err, "store: scrape_runs indices")
	}

	return nil
}

// ─── Leads ────────────────────────────────────────────────────────────────────

// CreateLead inserts l, assigning an ID when it has none.
// A unique-index violation is reported as ErrDuplicatePhone.
func (c *Client) CreateLead(ctx context.Context, l *domain.Lead) (*domain.Lead, error) {
	if l.ID == "" {
		l.ID = primitive.NewObjectID().Hex()
	}
	if l.ScrapedAt.IsZero() {
		l.ScrapedAt = time.Now().UTC()
	}
	if _, err := c.mdb.Collection(leadsCollection).InsertOne(ctx, l); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, eris.Wrapf(ErrDuplicatePhone, "lead %q", l.BusinessName)
		}
		return nil, eris.Wrap(err, "store: create lead")
	}
	return l, nil
}

// FindDuplicate reports whether e164 already belongs to a lead or a user.
func (c *Client) FindDuplicate(ctx context.Context, e164 string) (bool, error) {
	one := options.Count().SetLimit(1)

	n, err := c.mdb.Collection(leadsCollection).CountDocuments(ctx, bson.M{"normalized_phone": e164}, one)
	if err != nil {
		return false, eris.Wrap(err, "store: lookup lead phone")
	}
	if n > 0 {
		return true, nil
	}

	n, err = c.mdb.Collection(usersCollection).CountDocuments(ctx, bson.M{"phone_number": e164}, one)
	if err != nil {
		return false, eris.Wrap(err, "store: lookup user phone")
	}
	return n > 0, nil
}

// ListLeads returns one page of leads scoring at least minConfidence, best
// first, plus the total number of matching leads.
func (c *Client) ListLeads(ctx context.Context, minConfidence float64, limit, offset int) ([]domain.Lead, int64, error) {
	filter := bson.M{"confidence_score": bson.M{"$gte": minConfidence}}
	col := c.mdb.Collection(leadsCollection)

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, eris.Wrap(err, "store: count leads")
	}

	opts := options.Find().
		SetSort(bson.D{
			{Key: "confidence_score", Value: -1},
			{Key: "scraped_at", Value: -1},
		}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, eris.Wrap(err, "store: find leads")
	}
	defer cursor.Close(ctx)

	leads := make([]domain.Lead, 0, limit)
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, 0, eris.Wrap(err, "store: decode leads")
	}
	return leads, total, nil
}

// ─── Runs ─────────────────────────────────────────────────────────────────────

// SaveRun persists run metadata and returns its document ID.
func (c *Client) SaveRun(ctx context.Context, r *domain.RunRecord) (string, error) {
	r.CreatedAt = time.Now().UTC()
	if r.ID == "" {
		r.ID = primitive.NewObjectID().Hex()
	}
	if _, err := c.mdb.Collection(runsCollection).InsertOne(ctx, r); err != nil {
		return "", eris.Wrap(err, "store: save run")
	}
	return r.ID, nil
}
