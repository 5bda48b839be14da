package ledger

import "sort"

// OrderForDisplay returns a copy of entries with active products before
// archived ones. Entries with equal status keep their original order.
func OrderForDisplay(entries []Entry) []Entry {
	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsActive && !ordered[j].IsActive
	})
	return ordered
}

// FilterDay keeps the entries that fall on the same calendar day as key.
func (c Calendar) FilterDay(entries []Entry, key string) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if c.DayKey(e.Date) == key {
			out = append(out, e)
		}
	}
	return out
}
