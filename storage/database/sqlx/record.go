package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/storage/database"
)

type recordRow struct {
	ID   int    `db:"id"`
	Data string `db:"data"`
}

func (row recordRow) toDocument() (database.Document, error) {
	doc := make(database.Document)
	if err := json.Unmarshal([]byte(row.Data), &doc); err != nil {
		return nil, errors.Wrapf(err, "decoding record %d", row.ID)
	}
	doc["id"] = row.ID
	return doc, nil
}

func encode(doc database.Document) (string, error) {
	clean := make(database.Document, len(doc))
	for k, v := range doc {
		if k != "id" {
			clean[k] = v
		}
	}
	raw, err := json.Marshal(clean)
	if err != nil {
		return "", errors.Wrap(err, "encoding record")
	}
	return string(raw), nil
}

type recordRepository struct {
	db *sqlx.DB
}

var _ database.RecordRepository = (*recordRepository)(nil)

func NewRecordRepository(db *sqlx.DB) database.RecordRepository {
	return &recordRepository{db: db}
}

func (repo *recordRepository) ListRecords(ctx context.Context, resource string) ([]database.Document, error) {
	rows := make([]recordRow, 0)
	q := repo.db.Rebind("SELECT id, data FROM records WHERE resource = ? ORDER BY id")
	if err := repo.db.SelectContext(ctx, &rows, q, resource); err != nil {
		return nil, errors.Wrapf(err, "selecting %s", resource)
	}

	docs := make([]database.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.toDocument()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (repo *recordRepository) getRecord(ctx context.Context, q sqlx.QueryerContext, resource string, id int) (database.Document, error) {
	var row recordRow
	query := repo.db.Rebind("SELECT id, data FROM records WHERE resource = ? AND id = ?")
	if err := sqlx.GetContext(ctx, q, &row, query, resource, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrRecordNotFound
		}
		return nil, errors.Wrapf(err, "selecting %s %d", resource, id)
	}
	return row.toDocument()
}

func (repo *recordRepository) GetRecord(ctx context.Context, resource string, id int) (database.Document, error) {
	return repo.getRecord(ctx, repo.db, resource, id)
}

func (repo *recordRepository) CreateRecord(ctx context.Context, resource string, doc database.Document) (database.Document, error) {
	data, err := encode(database.Merge(nil, doc))
	if err != nil {
		return nil, err
	}

	var id int
	q := repo.db.Rebind("INSERT INTO records (resource, data) VALUES (?, ?) RETURNING id")
	if err = repo.db.QueryRowxContext(ctx, q, resource, data).Scan(&id); err != nil {
		return nil, errors.Wrapf(err, "inserting %s", resource)
	}
	return recordRow{ID: id, Data: data}.toDocument()
}

func (repo *recordRepository) UpdateRecord(ctx context.Context, resource string, id int, doc database.Document) (database.Document, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := repo.getRecord(ctx, tx, resource, id)
	if err != nil {
		return nil, err
	}
	data, err := encode(database.Merge(stored, doc))
	if err != nil {
		return nil, err
	}

	q := tx.Rebind("UPDATE records SET data = ?, updated_at = CURRENT_TIMESTAMP WHERE resource = ? AND id = ?")
	if _, err = tx.ExecContext(ctx, q, data, resource, id); err != nil {
		return nil, errors.Wrapf(err, "updating %s %d", resource, id)
	}
	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return recordRow{ID: id, Data: data}.toDocument()
}

func (repo *recordRepository) DeleteRecord(ctx context.Context, resource string, id int) error {
	q := repo.db.Rebind("DELETE FROM records WHERE resource = ? AND id = ?")
	res, err := repo.db.ExecContext(ctx, q, resource, id)
	if err != nil {
		return errors.Wrapf(err, "deleting %s %d", resource, id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return database.ErrRecordNotFound
	}
	return nil
}
