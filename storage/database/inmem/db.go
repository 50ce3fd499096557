package inmemdb

import (
	"sync"

	"github.com/trezcool/masomo-console/core/user"
	"github.com/trezcool/masomo-console/storage/database"
)

type (
	DB struct {
		user   *userTable
		record *recordTable
	}

	userTable struct {
		mutex sync.RWMutex
		pk    int
		table map[int]*user.User
	}

	recordTable struct {
		mutex sync.RWMutex
		pk    int
		table map[string]map[int]database.Document // {resource: {id: doc}}
	}
)

func Open() *DB {
	return &DB{
		user:   &userTable{table: make(map[int]*user.User)},
		record: &recordTable{table: make(map[string]map[int]database.Document)},
	}
}
