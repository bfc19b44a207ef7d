package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"

	"song-suggest/internal/retrieval"
)

// Songs are ordered by id so that index positions are stable between builds.
const songsQuery = `
	SELECT
		s.id,
		s.title,
		COALESCE(al.title, ''),
		COALESCE(array_agg(a.name ORDER BY a.name) FILTER (WHERE a.name IS NOT NULL), ARRAY[]::TEXT[])
	FROM songs s
	LEFT JOIN albums al ON al.id = s.album_id
	LEFT JOIN songs_artists sa ON sa.song_id = s.id
	LEFT JOIN artists a ON a.id = sa.artist_id
	GROUP BY s.id, s.title, al.title
	ORDER BY s.id`

type PostgresLoader struct {
	db   *sql.DB
	mode TextMode
	log  *slog.Logger
}

func NewPostgres(dsn string, mode TextMode, log *slog.Logger) (*PostgresLoader, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &PostgresLoader{db: db, mode: mode, log: log}, nil
}

func (l *PostgresLoader) FetchAll(ctx context.Context) ([]retrieval.Record, error) {
	songs, err := l.fetchSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch songs: %w", err)
	}
	return catalogRecords(songs, l.mode, l.log)
}

// catalogRecords is Records for a full catalog: blank titles are logged and an
// empty result is ErrEmptyCatalog.
func catalogRecords(songs []Song, mode TextMode, log *slog.Logger) ([]retrieval.Record, error) {
	records := Records(songs, mode)
	if dropped := len(songs) - len(records); dropped > 0 {
		log.Warn("skipped songs with blank titles", "count", dropped)
	}
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	return records, nil
}

func (l *PostgresLoader) fetchSongs(ctx context.Context) ([]Song, error) {
	rows, err := l.db.QueryContext(ctx, songsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Song
	for rows.Next() {
		var s Song
		if err := rows.Scan(&s.ID, &s.Title, &s.Album, pq.Array(&s.Artists)); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (l *PostgresLoader) Close() error {
	return l.db.Close()
}
