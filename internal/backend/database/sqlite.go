package database

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jo-hoe/gobooth/internal/common"
)

type SQLitePhotoStore struct {
	db               *sql.DB
	connectionString string
}

func NewSQLitePhotoStore(connectionString string) (PhotoStore, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	return &SQLitePhotoStore{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLitePhotoStore) CreateSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS photos (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		storage_ref TEXT NOT NULL,
		filename TEXT NOT NULL,
		filter TEXT NOT NULL DEFAULT '',
		frame_id TEXT NOT NULL DEFAULT '',
		overlays TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_photos_owner_created
		ON photos (owner_id, created_at DESC)`)
	return err
}

func (s *SQLitePhotoStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLitePhotoStore) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLitePhotoStore) CreatePhoto(record *PhotoRecord) (string, error) {
	id, err := common.NewID()
	if err != nil {
		return "", err
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.Exec(
		`INSERT INTO photos (id, owner_id, storage_ref, filename, filter, frame_id, overlays, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, record.OwnerID, record.StorageRef, record.Filename,
		record.Filter, record.FrameID, record.Overlays, createdAt.UnixMilli())
	if err != nil {
		return "", err
	}

	return id, nil
}

func (s *SQLitePhotoStore) ListPhotosByOwner(ownerID string) ([]*PhotoRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, storage_ref, filename, filter, frame_id, overlays, created_at
		 FROM photos WHERE owner_id = ?
		 ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	var records []*PhotoRecord
	for rows.Next() {
		record, err := scanPhoto(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *SQLitePhotoStore) GetPhoto(id string) (*PhotoRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, storage_ref, filename, filter, frame_id, overlays, created_at
		 FROM photos WHERE id = ?`, id)
	record, err := scanPhoto(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *SQLitePhotoStore) DeletePhoto(id, ownerID string) error {
	result, err := s.db.Exec("DELETE FROM photos WHERE id = ? AND owner_id = ?", id, ownerID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

func scanPhoto(scan func(dest ...any) error) (*PhotoRecord, error) {
	var record PhotoRecord
	var createdAt int64
	if err := scan(&record.ID, &record.OwnerID, &record.StorageRef, &record.Filename,
		&record.Filter, &record.FrameID, &record.Overlays, &createdAt); err != nil {
		return nil, err
	}
	record.CreatedAt = time.UnixMilli(createdAt)
	return &record, nil
}
