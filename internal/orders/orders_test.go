package orders

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusUnused, true},
		{StatusPending, StatusRefunded, true},
		{StatusUnused, StatusUsed, true},
		{StatusUnused, StatusRefunded, true},
		{StatusPending, StatusUsed, false},
		{StatusUsed, StatusRefunded, false},
		{StatusRefunded, StatusUnused, false},
		{StatusUnused, StatusPending, false},
		{Status("bogus"), StatusUnused, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusUsed))
	assert.True(t, IsTerminal(StatusRefunded))
	assert.False(t, IsTerminal(StatusPending))
	assert.False(t, IsTerminal(StatusUnused))
	assert.False(t, IsTerminal(Status("bogus")))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("unused")
	require.NoError(t, err)
	assert.Equal(t, StatusUnused, s)

	_, err = ParseStatus("expired")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestIsExpirable(t *testing.T) {
	exp := "2024-05-01T12:00:00Z"
	assert.True(t, Order{Status: StatusUnused, ExpireTime: exp}.IsExpirable())
	assert.False(t, Order{Status: StatusUnused}.IsExpirable())
	assert.False(t, Order{Status: StatusUnused, ExpireTime: "   "}.IsExpirable())
	assert.False(t, Order{Status: StatusPending, ExpireTime: exp}.IsExpirable())
	assert.False(t, Order{Status: StatusUsed, ExpireTime: exp}.IsExpirable())
	assert.False(t, Order{Status: StatusRefunded, ExpireTime: exp}.IsExpirable())
}

func TestParseExpiry(t *testing.T) {
	shanghai := time.FixedZone("CST", 8*3600)
	want := time.Date(2024, 5, 1, 18, 30, 0, 0, shanghai)

	for _, raw := range []string{
		"2024-05-01 18:30:00",
		"2024-05-01T18:30:00",
		"2024/05/01 18:30:00",
		"2024-05-01 18:30",
		" 2024-05-01T18:30:00+08:00 ",
	} {
		got, err := ParseExpiry(raw, shanghai)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "%s parsed as %s", raw, got)
	}
}

func TestParseExpiryErrors(t *testing.T) {
	_, err := ParseExpiry("", nil)
	assert.ErrorIs(t, err, ErrNoExpiry)

	_, err = ParseExpiry("next tuesday", nil)
	assert.ErrorIs(t, err, ErrMalformedExpiry)
	assert.False(t, errors.Is(err, ErrNoExpiry))
}

func writeOrders(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileAndQueries(t *testing.T) {
	path := writeOrders(t, `[
	  {"id":"o1","status":"unused","expireTime":"2024-05-02T10:00:00Z","shopName":"老王火锅","dealTitle":"双人套餐",
	   "price":"88.00","quantity":2,"totalPrice":"176.00","verifyCode":"1234 5678","createTime":"2024-04-01T10:00:00Z"},
	  {"id":"o2","status":"used","shopName":"咖啡","dealTitle":"拿铁","price":"18.5","quantity":1,"totalPrice":"18.5",
	   "createTime":"2024-04-03T10:00:00Z"},
	  {"id":"o3","status":"pending","expireTime":"2024-04-30T10:15:00Z","shopName":"KTV","dealTitle":"欢唱3小时",
	   "price":"59","quantity":1,"totalPrice":"59","createTime":"2024-04-02T10:00:00Z"}
	]`)

	store, err := LoadFile(path)
	require.NoError(t, err)
	ctx := context.Background()

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, o := range active {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []string{"o1", "o3"}, ids)

	all, err := store.ListOrders(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "o2", all[0].ID, "newest first")
	assert.Equal(t, "o1", all[2].ID)

	unused, err := store.ListOrders(ctx, Filter{Status: StatusUnused})
	require.NoError(t, err)
	require.Len(t, unused, 1)
	assert.Equal(t, "176", unused[0].TotalPrice.String())

	o, err := store.GetOrder(ctx, "o3")
	require.NoError(t, err)
	assert.Equal(t, "KTV", o.ShopName)

	_, err = store.GetOrder(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadFileRejectsBadRecords(t *testing.T) {
	_, err := LoadFile(writeOrders(t, `[{"id":"","status":"unused"}]`))
	assert.Error(t, err)

	_, err = LoadFile(writeOrders(t, `[{"id":"a","status":"unused"},{"id":"a","status":"used"}]`))
	assert.ErrorContains(t, err, "duplicate")

	_, err = LoadFile(writeOrders(t, `[{"id":"a","status":"expired"}]`))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestMemoryStoreCopiesInput(t *testing.T) {
	in := []Order{{ID: "a", Status: StatusUnused}}
	store := NewMemoryStore(in)
	in[0].Status = StatusUsed

	o, err := store.GetOrder(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, StatusUnused, o.Status)
}
