package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	dst := Document{"id": 1, "title": "Math", "room": "B2"}
	got := Merge(dst, Document{"id": 9, "title": "Maths", "room": nil, "teacher": "Juma"})
	assert.Equal(t, Document{"id": 1, "title": "Maths", "room": "B2", "teacher": "Juma"}, got)

	assert.Equal(t, Document{"a": "b"}, Merge(nil, Document{"a": "b", "c": nil}))
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		engine  string
		want    string
		wantErr bool
	}{
		{engine: EnginePostgres, want: "postgres"},
		{engine: EngineSQLite, want: "sqlite"},
		{engine: EngineMemory, wantErr: true},
		{engine: "mysql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			got, err := driverName(tt.engine)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
