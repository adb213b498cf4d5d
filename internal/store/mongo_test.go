package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/saruni-spec/GRA/internal/domain"
)

// Runs against a real server: MONGO_TEST_URI=mongodb://localhost:27017 go test ./internal/store
func newTestClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := "gra_test_" + uuid.NewString()[:8]
	c, err := New(ctx, uri, db)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.mdb.Drop(ctx)
		_ = c.Disconnect(ctx)
	})
	return c
}

func strPtr(s string) *string { return &s }

func TestCreateLeadAndFindDuplicate(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	l, err := c.CreateLead(ctx, &domain.Lead{
		BusinessName:    "Ama Seamstress",
		NormalizedPhone: strPtr("+233244123456"),
		ConfidenceScore: 0.75,
	})
	require.NoError(t, err)
	assert.Len(t, l.ID, 24)

	dup, err := c.FindDuplicate(ctx, "+233244123456")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = c.FindDuplicate(ctx, "+233201234567")
	require.NoError(t, err)
	assert.False(t, dup)

	_, err = c.mdb.Collection(usersCollection).InsertOne(ctx, bson.M{"phone_number": "+233201234567"})
	require.NoError(t, err)
	dup, err = c.FindDuplicate(ctx, "+233201234567")
	require.NoError(t, err)
	assert.True(t, dup, "users own numbers too")
}

func TestCreateLeadUniquePhone(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.CreateLead(ctx, &domain.Lead{BusinessName: "First", NormalizedPhone: strPtr("+233551234567")})
	require.NoError(t, err)
	_, err = c.CreateLead(ctx, &domain.Lead{BusinessName: "Second", NormalizedPhone: strPtr("+233551234567")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicatePhone))

	// Leads without a phone never collide.
	_, err = c.CreateLead(ctx, &domain.Lead{BusinessName: "No Phone One"})
	require.NoError(t, err)
	_, err = c.CreateLead(ctx, &domain.Lead{BusinessName: "No Phone Two"})
	require.NoError(t, err)
}

func TestListLeads(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)

	for i, l := range []domain.Lead{
		{BusinessName: "Low", ConfidenceScore: 0.4, ScrapedAt: base},
		{BusinessName: "High old", ConfidenceScore: 0.9, ScrapedAt: base},
		{BusinessName: "High new", ConfidenceScore: 0.9, ScrapedAt: base.Add(time.Hour)},
		{BusinessName: "Mid", ConfidenceScore: 0.65, ScrapedAt: base},
	} {
		_, err := c.CreateLead(ctx, &l)
		require.NoError(t, err, i)
	}

	leads, total, err := c.ListLeads(ctx, 0.6, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, leads, 2)
	assert.Equal(t, "High new", leads[0].BusinessName)
	assert.Equal(t, "High old", leads[1].BusinessName)

	leads, _, err = c.ListLeads(ctx, 0.6, 2, 2)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Mid", leads[0].BusinessName)
}

func TestSaveRun(t *testing.T) {
	c := newTestClient(t)

	id, err := c.SaveRun(context.Background(), &domain.RunRecord{JobID: "job-1", LeadsFound: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}
