package echoapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/storage/database"
)

// Ordering binds the `ordering` query param of list endpoints, eg. `?ordering=-date,subject`.
type Ordering struct {
	Orderings []core.Ordering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(core.OrderingParam))
}

// Sort orders docs by their top level fields. Unknown fields compare equal.
func (ord Ordering) Sort(docs []database.Document) {
	if len(ord.Orderings) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range ord.Orderings {
			c := compareValues(docs[i][o.Field], docs[j][o.Field])
			if c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

// compareValues compares numbers numerically and anything else as case-insensitive text.
// Missing values sort first.
func compareValues(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	fa, aNum := number(a)
	fb, bNum := number(b)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(fmt.Sprint(a)), strings.ToLower(fmt.Sprint(b)))
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
