package stock

import "sort"

// Entry pairs a product with its derived status for urgency ordering.
type Entry struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Result
}

func urgency(r Result) int {
	switch {
	case r.IsOutOfStock:
		return 0
	case r.IsLowStock:
		return 1
	default:
		return 2
	}
}

// Less orders out-of-stock entries first, then low-stock ones, then the
// rest, each group alphabetically by name.
func Less(a, b Entry) bool {
	ua, ub := urgency(a.Result), urgency(b.Result)
	if ua != ub {
		return ua < ub
	}
	return a.Name < b.Name
}

// SortByUrgency sorts entries in place. Entries with the same urgency and
// name keep their relative order.
func SortByUrgency(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
}
