package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsLowStock(t *testing.T) {
	for _, qty := range []int{0, 1, 5, 1000} {
		require.False(t, IsLowStock(qty, 0), "zero threshold must never alert (qty=%d)", qty)
	}
	require.True(t, IsLowStock(5, 5))
	require.True(t, IsLowStock(0, 3))
	require.True(t, IsLowStock(2, 3))
	require.False(t, IsLowStock(4, 3))
}

func TestProductMatches(t *testing.T) {
	ring := Product{SKU: "R1", Name: "Gold Ring"}
	chain := Product{SKU: "S2", Name: "Silver Chain"}

	require.True(t, ring.Matches("ring"))
	require.False(t, chain.Matches("ring"))
	require.True(t, chain.Matches("s2"))
	require.True(t, chain.Matches(""))
	require.True(t, ring.Matches("GOLD r"))
}

func TestCanonicalName(t *testing.T) {
	require.Equal(t, "GOLD RING", CanonicalName("  gold Ring "))
}

func TestMissingIsActiveMeansActive(t *testing.T) {
	var p Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","sku":"R1","name":"RING","quantity":3}`), &p))
	require.True(t, p.IsActive)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","isActive":false}`), &p))
	require.False(t, p.IsActive)

	var e Entry
	require.NoError(t, json.Unmarshal([]byte(`{"sku":"R1","openingQty":1}`), &e))
	require.True(t, e.IsActive)
}

func TestOrderForDisplayActiveFirstStable(t *testing.T) {
	entries := []Entry{
		{SKU: "A", IsActive: false},
		{SKU: "B", IsActive: true},
		{SKU: "C", IsActive: true},
		{SKU: "D", IsActive: false},
	}
	ordered := OrderForDisplay(entries)
	var skus []string
	for _, e := range ordered {
		skus = append(skus, e.SKU)
	}
	require.Equal(t, []string{"B", "C", "A", "D"}, skus)
	require.Equal(t, "A", entries[0].SKU, "input must not be reordered")
}

func TestCalendarDayBoundary(t *testing.T) {
	cal, err := LoadCalendar("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC is 01:30 the next day in Kolkata.
	late := time.Date(2024, 3, 14, 20, 0, 0, 0, time.UTC)
	early := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "2024-03-15", cal.DayKey(late))
	require.Equal(t, "2024-03-14", cal.DayKey(early))

	entries := []Entry{{SKU: "late", Date: late}, {SKU: "early", Date: early}}
	got := cal.FilterDay(entries, "2024-03-15")
	require.Len(t, got, 1)
	require.Equal(t, "late", got[0].SKU)
}

func TestResolveNamedRanges(t *testing.T) {
	cal := NewCalendar(time.UTC)
	now := time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		kind  RangeKind
		start time.Time
		end   time.Time
	}{
		{RangeToday, day(2024, 3, 15), day(2024, 3, 15)},
		{RangeYesterday, day(2024, 3, 14), day(2024, 3, 14)},
		{RangeThisMonth, day(2024, 3, 1), day(2024, 3, 15)},
		{RangeLast3Months, day(2023, 12, 15), day(2024, 3, 15)},
		{RangeThisYear, day(2024, 1, 1), day(2024, 3, 15)},
	}
	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			w, err := Resolve(Range{Kind: tc.kind}, now, cal)
			require.NoError(t, err)
			require.False(t, w.Unbounded)
			require.True(t, tc.start.Equal(w.Start), "start %s", w.Start)
			require.True(t, tc.end.Equal(w.End), "end %s", w.End)
		})
	}

	w, err := Resolve(Range{Kind: RangeAllData}, now, cal)
	require.NoError(t, err)
	require.True(t, w.Unbounded)
	require.Equal(t, "all", w.Params().Get("type"))
	require.Empty(t, w.Params().Get("start"))
}

func TestResolveLast3MonthsClampsMonthEnd(t *testing.T) {
	cal := NewCalendar(time.UTC)
	w, err := Resolve(Range{Kind: RangeLast3Months}, time.Date(2024, 5, 31, 9, 0, 0, 0, time.UTC), cal)
	require.NoError(t, err)
	require.Equal(t, "2024-02-29", w.Start.Format(DayLayout))
}

func TestResolveCustom(t *testing.T) {
	cal := NewCalendar(time.UTC)
	now := time.Now()

	w, err := Resolve(Range{Kind: RangeCustom, Start: "2024-01-10", End: "2024-01-10"}, now, cal)
	require.NoError(t, err)
	require.Equal(t, "custom", w.Params().Get("type"))
	require.Equal(t, "2024-01-10", w.Params().Get("start"))
	require.Equal(t, "2024-01-10", w.Params().Get("end"))

	_, err = Resolve(Range{Kind: RangeCustom, Start: "2024-01-10"}, now, cal)
	require.ErrorIs(t, err, ErrRangeIncomplete)

	_, err = Resolve(Range{Kind: RangeCustom, Start: "2024-02-01", End: "2024-01-10"}, now, cal)
	require.ErrorIs(t, err, ErrRangeInverted)

	_, err = Resolve(Range{Kind: "fortnight"}, now, cal)
	require.ErrorIs(t, err, ErrUnknownRange)
}

func TestWindowFromQueryPrefersExplicitBounds(t *testing.T) {
	cal := NewCalendar(time.UTC)
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	w, err := Resolve(Range{Kind: RangeThisMonth}, now, cal)
	require.NoError(t, err)

	got, err := WindowFromQuery(w.Params(), now.AddDate(0, 2, 0), cal)
	require.NoError(t, err)
	require.Equal(t, RangeThisMonth, got.Kind)
	require.True(t, got.Start.Equal(w.Start))
	require.True(t, got.End.Equal(w.End))

	require.Equal(t, "2024-03-01", cal.DayKey(got.Start))
	require.Equal(t, "2024-03-15", cal.DayKey(got.End))

	all, err := WindowFromQuery(map[string][]string{"type": {"all"}}, now, cal)
	require.NoError(t, err)
	require.True(t, all.Unbounded)
}

func TestEntryBalanced(t *testing.T) {
	e := Entry{OpeningQty: 10, AddedQty: 5, SoldQty: 3, ClosingQty: 12}
	require.True(t, e.Balanced())
	e.ClosingQty = 11
	require.False(t, e.Balanced())
	require.Equal(t, 12, e.ExpectedClosing())
}

func TestRolePermissions(t *testing.T) {
	require.Equal(t, RoleAdmin, ParseRole(" Admin "))
	require.Equal(t, RoleGuest, ParseRole("owner"))
	require.True(t, RoleStaff.CanAdjust())
	require.False(t, RoleStaff.CanArchive())
	require.False(t, RoleGuest.CanAdjust())
	require.True(t, RoleAdmin.CanArchive())
}
