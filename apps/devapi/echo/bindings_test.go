package echoapi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/storage/database"
)

func TestOrdering_Sort(t *testing.T) {
	docs := func() []database.Document {
		return []database.Document{
			{"id": 1, "subject": "math", "score": 70.0},
			{"id": 2, "subject": "Art", "score": 91.0},
			{"id": 3, "subject": "art", "score": 55.0},
			{"id": 4, "score": 70.0},
		}
	}
	ids := func(docs []database.Document) []int {
		out := make([]int, 0, len(docs))
		for _, doc := range docs {
			out = append(out, doc["id"].(int))
		}
		return out
	}

	tests := []struct {
		ordering string
		want     []int
	}{
		{ordering: "", want: []int{1, 2, 3, 4}},
		{ordering: "-id", want: []int{4, 3, 2, 1}},
		{ordering: "subject", want: []int{4, 2, 3, 1}},
		{ordering: "-score,id", want: []int{2, 1, 4, 3}},
		{ordering: "nope", want: []int{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.ordering, func(t *testing.T) {
			got := docs()
			Ordering{Orderings: core.ParseOrdering(tt.ordering)}.Sort(got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}
