package core

import "strings"

// OrderingParam is the query/flag name holding a comma separated ordering, eg. `-date,name`.
const OrderingParam = "ordering"

type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrdering parses `field1,-field2` into orderings; a leading "-" means descending.
func ParseOrdering(s string) []Ordering {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var orderings []Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, Ordering{Field: strings.ToLower(field), Ascending: !descending})
	}
	return orderings
}
