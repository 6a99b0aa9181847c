// Package store persists tweets in SQLite.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"tribefeed/internal/domain"
	"tribefeed/pkg/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS tweets (
    handle        TEXT    NOT NULL,
    id            TEXT    NOT NULL,
    author_name   TEXT    NOT NULL DEFAULT '',
    avatar_url    TEXT    NOT NULL DEFAULT '',
    verified_type TEXT    NOT NULL DEFAULT 'none',
    body          TEXT    NOT NULL,
    created_at    INTEGER NOT NULL,
    stored_at     INTEGER NOT NULL,
    PRIMARY KEY (handle, id)
);
CREATE INDEX IF NOT EXISTS idx_tweets_created_at ON tweets (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_tweets_handle_created_at ON tweets (handle COLLATE NOCASE, created_at DESC);
`

// SQLiteStore is a TweetRepository backed by a single SQLite file.
// Ids are stored as decimal TEXT so the full uint64 range survives.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create directory for %s", path)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite database %s", path)
	}
	// A single connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "connect to sqlite database %s", path)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply tweets schema")
	}

	log.GlobalInfo("store opened", "path", path)
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save upserts tweets in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, tweets ...*domain.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin save transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO tweets (handle, id, author_name, avatar_url, verified_type, body, created_at, stored_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (handle, id) DO UPDATE SET
            author_name   = excluded.author_name,
            avatar_url    = excluded.avatar_url,
            verified_type = excluded.verified_type,
            body          = excluded.body,
            created_at    = excluded.created_at,
            stored_at     = excluded.stored_at`)
	if err != nil {
		return errors.Wrap(err, "prepare tweet upsert")
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, t := range tweets {
		author, _ := t.Author()
		verified := author.VerifiedType
		if verified == "" {
			verified = domain.VerifiedNone
		}
		_, err := stmt.ExecContext(ctx,
			t.Handle(),
			strconv.FormatUint(t.ID(), 10),
			author.Name,
			author.AvatarURL,
			string(verified),
			t.Body(),
			t.CreatedAt().UTC().UnixMilli(),
			now,
		)
		if err != nil {
			return errors.Wrapf(err, "save tweet %s/%d", t.Handle(), t.ID())
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit save transaction")
	}
	return nil
}

const selectColumns = `SELECT handle, id, author_name, avatar_url, verified_type, body, created_at FROM tweets`

// Get returns a single tweet or domain.ErrTweetNotFound.
func (s *SQLiteStore) Get(ctx context.Context, handle string, id uint64) (*domain.Tweet, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE handle = ? COLLATE NOCASE AND id = ?`,
		handle, strconv.FormatUint(id, 10))

	tweet, err := scanTweet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTweetNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get tweet %s/%d", handle, id)
	}
	return tweet, nil
}

// GetByID returns the most recently stored tweet with id under any handle.
// Tweet ids are global, so this finds a tweet after its author is renamed.
func (s *SQLiteStore) GetByID(ctx context.Context, id uint64) (*domain.Tweet, error) {
	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE id = ? ORDER BY stored_at DESC LIMIT 1`,
		strconv.FormatUint(id, 10))

	tweet, err := scanTweet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTweetNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get tweet %d", id)
	}
	return tweet, nil
}

// Recent returns the newest tweets across all handles.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]*domain.Tweet, error) {
	return s.query(ctx, selectColumns+` ORDER BY created_at DESC LIMIT ?`, limit)
}

// ByHandle returns the newest tweets of one handle, case-insensitively.
func (s *SQLiteStore) ByHandle(ctx context.Context, handle string, limit int) ([]*domain.Tweet, error) {
	return s.query(ctx,
		selectColumns+` WHERE handle = ? COLLATE NOCASE ORDER BY created_at DESC LIMIT ?`,
		handle, limit)
}

// Search returns the newest tweets whose body contains term, ignoring ASCII case.
func (s *SQLiteStore) Search(ctx context.Context, term string, limit int) ([]*domain.Tweet, error) {
	return s.query(ctx,
		selectColumns+` WHERE body LIKE ? ESCAPE '\' ORDER BY created_at DESC LIMIT ?`,
		"%"+escapeLike(term)+"%", limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]*domain.Tweet, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query tweets")
	}
	defer rows.Close()

	var tweets []*domain.Tweet
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan tweet")
		}
		tweets = append(tweets, t)
	}
	return tweets, errors.Wrap(rows.Err(), "iterate tweets")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTweet(row scanner) (*domain.Tweet, error) {
	var (
		author  domain.Author
		id      string
		body    string
		created int64
	)
	if err := row.Scan(&author.Handle, &id, &author.Name, &author.AvatarURL, &author.VerifiedType, &body, &created); err != nil {
		return nil, err
	}
	author.Verified = author.VerifiedType != domain.VerifiedNone

	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "tweet id %q", id)
	}
	return domain.NewTweet(author, n, body, time.UnixMilli(created).UTC())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
