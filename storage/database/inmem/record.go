package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/masomo-console/storage/database"
)

type recordRepository struct {
	db *recordTable
}

var _ database.RecordRepository = (*recordRepository)(nil)

func NewRecordRepository(db *DB) database.RecordRepository {
	return &recordRepository{db: db.record}
}

func (repo *recordRepository) ListRecords(_ context.Context, resource string) ([]database.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := repo.db.table[resource]
	ids := make([]int, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	docs := make([]database.Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, rows[id].Clone())
	}
	return docs, nil
}

func (repo *recordRepository) GetRecord(_ context.Context, resource string, id int) (database.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if doc, ok := repo.db.table[resource][id]; ok {
		return doc.Clone(), nil
	}
	return nil, database.ErrRecordNotFound
}

func (repo *recordRepository) CreateRecord(_ context.Context, resource string, doc database.Document) (database.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.table[resource] == nil {
		repo.db.table[resource] = make(map[int]database.Document)
	}
	repo.db.pk++
	stored := database.Merge(nil, doc)
	stored["id"] = repo.db.pk
	repo.db.table[resource][repo.db.pk] = stored
	return stored.Clone(), nil
}

func (repo *recordRepository) UpdateRecord(_ context.Context, resource string, id int, doc database.Document) (database.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.table[resource][id]
	if !ok {
		return nil, database.ErrRecordNotFound
	}
	return database.Merge(stored, doc).Clone(), nil
}

func (repo *recordRepository) DeleteRecord(_ context.Context, resource string, id int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[resource][id]; !ok {
		return database.ErrRecordNotFound
	}
	delete(repo.db.table[resource], id)
	return nil
}
