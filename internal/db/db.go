package db

import (
	"context"
	"fmt"

	"parish_feeds/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS feed_fetches (
	id SERIAL PRIMARY KEY,
	feed VARCHAR(64) NOT NULL,
	url VARCHAR(2048) NOT NULL,
	status INTEGER NOT NULL,
	ok BOOLEAN NOT NULL,
	message TEXT,
	body BYTEA,
	fetched_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS feed_fetches_feed_idx ON feed_fetches (feed, fetched_at DESC);
`

// Database инкапсулирует пул соединений к PostgreSQL.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB создаёт новый пул соединений по connString и возвращает Database.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %v", err)
	}
	return &Database{Pool: pool}, nil
}

// Close закрывает пул соединений.
func (db *Database) Close() {
	db.Pool.Close()
}

// Migrate создаёт таблицу архива загрузок, если её ещё нет.
func (db *Database) Migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, schema)
	return err
}

// SaveFetch сохраняет запись о загрузке ленты. Архив только пополняется
// и никогда не используется для ответа на запрос.
func (db *Database) SaveFetch(ctx context.Context, rec models.FetchRecord) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO feed_fetches (feed, url, status, ok, message, body, fetched_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, rec.Feed, rec.URL, rec.StatusCode, rec.OK, rec.Message, rec.Body, rec.FetchedAt)
	return err
}

// LastFetches возвращает limit последних записей по ленте feed, от новых к старым.
func (db *Database) LastFetches(ctx context.Context, feed string, limit int) ([]models.FetchRecord, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT feed, url, status, ok, COALESCE(message, ''), body, fetched_at
        FROM feed_fetches
        WHERE feed = $1
        ORDER BY fetched_at DESC, id DESC
        LIMIT $2
    `, feed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FetchRecord
	for rows.Next() {
		var rec models.FetchRecord
		if err := rows.Scan(&rec.Feed, &rec.URL, &rec.StatusCode, &rec.OK, &rec.Message, &rec.Body, &rec.FetchedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Ping проверяет доступность базы.
func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}
