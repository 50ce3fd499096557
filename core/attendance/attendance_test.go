package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core/user"
)

func TestSummarize(t *testing.T) {
	records := []Record{
		{StudentID: 1, StudentName: "Zuri", Status: StatusPresent},
		{StudentID: 1, StudentName: "Zuri", Status: StatusLate},
		{StudentID: 1, StudentName: "Zuri", Status: StatusAbsent},
		{StudentID: 2, StudentName: "Amani", Status: StatusExcused},
		{StudentID: 2, StudentName: "Amani", Status: StatusPresent},
	}
	got := Summarize(records)
	require.Len(t, got, 2)
	assert.Equal(t, Summary{StudentID: 2, StudentName: "Amani", Present: 1, Excused: 1, Total: 2, Percentage: 50}, got[0])
	assert.Equal(t, Summary{StudentID: 1, StudentName: "Zuri", Present: 1, Late: 1, Absent: 1, Total: 3, Percentage: 66.7}, got[1])
	assert.Empty(t, Summarize(nil))
}

func TestPipeline(t *testing.T) {
	records := []Record{
		{ID: 1, StudentID: 1, StudentName: "Zuri", Date: "2024-03-01"},
		{ID: 2, StudentID: 2, StudentName: "Amani", Date: "2024-03-02"},
		{ID: 3, StudentID: 1, StudentName: "Zuri", Date: "2024-03-02"},
	}
	teacher := user.Principal{UserID: 9, Roles: []string{user.RoleTeacher}}
	view := Pipeline().Derive(records, "", teacher)
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "2024-03-02", view.Groups[0].Key)
	assert.Equal(t, 2, view.Groups[0].Items[0].ID)
	assert.Equal(t, 3, view.Groups[0].Items[1].ID)

	student := user.Principal{UserID: 1, Roles: []string{user.RoleStudent}}
	assert.Equal(t, 2, Pipeline().Derive(records, "", student).Len())
}
