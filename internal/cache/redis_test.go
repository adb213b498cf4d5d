package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saruni-spec/GRA/internal/domain"
)

func TestRunKey(t *testing.T) {
	k := RunKey("hair salon", "Madina, Accra", "GOOGLE_MAPS")

	assert.True(t, strings.HasPrefix(k, runPrefix))
	assert.Len(t, strings.TrimPrefix(k, runPrefix), 64)
	assert.Equal(t, k, RunKey("hair salon", "Madina, Accra", "GOOGLE_MAPS"))
	assert.Equal(t, k, RunKey("  Hair Salon ", "madina, accra", "google_maps"))

	assert.NotEqual(t, k, RunKey("hair salon", "Osu, Accra", "GOOGLE_MAPS"))
	assert.NotEqual(t, k, RunKey("barber shop", "Madina, Accra", "GOOGLE_MAPS"))
	assert.NotEqual(t, k, RunKey("hair salon", "Madina, Accra", "JIJI"))
}

func TestNewDefaultsTTL(t *testing.T) {
	c := New("localhost:6379", "", 0, 0)
	defer c.Close()
	assert.Equal(t, DefaultRunTTL, c.ttl)
}

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRunRoundTrip(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	key := RunKey("hair salon", "Madina, Accra", "GOOGLE_MAPS")

	got, err := c.GetRun(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "miss")

	require.NoError(t, c.SetRun(ctx, key, &domain.RunSummary{
		JobID:        "job-1",
		Status:       domain.RunCompleted,
		TotalScraped: 4,
		LeadsFound:   3,
	}))
	assert.Equal(t, time.Minute, mr.TTL(key))

	got, err = c.GetRun(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, 4, got.TotalScraped)
	assert.Equal(t, 3, got.LeadsFound)

	require.NoError(t, c.DeleteRun(ctx, key))
	got, err = c.GetRun(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRunExpires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()
	key := RunKey("chop bar", "Osu, Accra", "GOOGLE_MAPS")

	require.NoError(t, c.SetRun(ctx, key, &domain.RunSummary{JobID: "job-2"}))
	mr.FastForward(time.Minute + time.Second)

	got, err := c.GetRun(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetRunCorruptEntry(t *testing.T) {
	c, mr := newTestClient(t)
	key := RunKey("tailor shop", "Tema", "GOOGLE_MAPS")
	require.NoError(t, mr.Set(key, "{not json"))

	_, err := c.GetRun(context.Background(), key)
	assert.Error(t, err)
}

func TestDeleteMissingRun(t *testing.T) {
	c, _ := newTestClient(t)
	assert.NoError(t, c.DeleteRun(context.Background(), RunKey("a", "b", "c")))
}
