package core

// Deduplicate removes rows that repeat an earlier row across all columns,
// keeping the first occurrence. Nulls compare equal to nulls.
func Deduplicate(t *Table) *Table {
	seen := make(map[string]struct{}, t.rows)
	keep := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		k := t.rowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == t.rows {
		return t
	}
	return t.take(keep)
}
