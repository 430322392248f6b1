package scanlog

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/store/memory"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

func newLog(t *testing.T) (*Log, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	l := New(store, logger.NewNop())
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return l, store
}

func TestAppendAndListNewestFirst(t *testing.T) {
	ctx := context.Background()
	l, _ := newLog(t)

	for _, code := range []string{"ABC123", "XYZ789", "ABC123"} {
		_, err := l.Append(ctx, code, iphoneUA)
		require.NoError(t, err)
	}

	events, err := l.List(ctx, "ABC123", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].ScannedAt.After(events[1].ScannedAt))
	assert.Greater(t, events[0].ID, events[1].ID, "ids sort in scan order")

	all, err := l.All(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ABC123", all[0].Code)
	assert.Equal(t, "XYZ789", all[1].Code)
}

func TestAppendTruncatesUserAgent(t *testing.T) {
	l, _ := newLog(t)
	event, err := l.Append(context.Background(), "ABC123", strings.Repeat("a", 2000))
	require.NoError(t, err)
	assert.Len(t, event.UserAgent, maxUserAgent)
	assert.Equal(t, time.UTC, event.ScannedAt.Location())
}

func TestAppendTruncatesOnRuneBoundary(t *testing.T) {
	l, _ := newLog(t)
	// "é" is two bytes, so byte 512 falls inside a rune
	ua := "a" + strings.Repeat("é", 600)
	event, err := l.Append(context.Background(), "ABC123", ua)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(event.UserAgent))
	assert.Len(t, event.UserAgent, maxUserAgent-1)
	assert.True(t, strings.HasPrefix(ua, event.UserAgent))
}

func TestListRejectsInvalidCode(t *testing.T) {
	l, _ := newLog(t)
	_, err := l.List(context.Background(), "no", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidCode)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, DefaultLimit, clampLimit(-5))
	assert.Equal(t, DefaultLimit, clampLimit(5000))
	assert.Equal(t, 25, clampLimit(25))
}

func TestDescribe(t *testing.T) {
	c := Describe(domain.ScanEvent{UserAgent: iphoneUA})
	assert.Equal(t, "Safari", c.Browser)
	assert.True(t, c.Mobile)
	assert.False(t, c.Bot)
	assert.NotEqual(t, "unknown", c.OS)

	bot := Describe(domain.ScanEvent{UserAgent: "Googlebot/2.1 (+http://www.google.com/bot.html)"})
	assert.True(t, bot.Bot)

	empty := Describe(domain.ScanEvent{})
	assert.Equal(t, Client{Browser: "unknown", OS: "unknown"}, empty)
}

func TestDescribeAll(t *testing.T) {
	events := []domain.ScanEvent{{ID: "1", Code: "ABC123"}, {ID: "2", Code: "ABC123", UserAgent: iphoneUA}}
	described := DescribeAll(events)
	require.Len(t, described, 2)
	assert.Equal(t, "1", described[0].ID)
	assert.Equal(t, "unknown", described[0].Client.Browser)
	assert.True(t, described[1].Client.Mobile)
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	l, store := newLog(t)

	require.NoError(t, store.InsertCode(ctx, domain.ScannableCode{Code: "BOUND1", OwnerID: "alice"}))
	require.NoError(t, store.InsertCode(ctx, domain.ScannableCode{Code: "FREE01"}))
	require.NoError(t, store.InsertCode(ctx, domain.ScannableCode{Code: "GONE01", OwnerID: "carol", Deleted: true}))
	require.NoError(t, store.SaveDirectory(ctx, "alice", []byte(`{}`)))
	require.NoError(t, store.SaveDirectory(ctx, "bob", []byte(`{}`)))
	for i := 0; i < 3; i++ {
		_, err := l.Append(ctx, "FREE01", "")
		require.NoError(t, err)
	}

	ov, err := l.Overview(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, Overview{TotalCodes: 2, LinkedCodes: 1, TotalScans: 3, TotalOwners: 2}, ov)
}
