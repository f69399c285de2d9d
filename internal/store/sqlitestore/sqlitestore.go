package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"gramlens/internal/model"
)

// DB wraps the SQLite database holding collected snapshots and reports.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS users (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  user_id TEXT NOT NULL,
	  username TEXT NOT NULL,
	  full_name TEXT,
	  follower_count INTEGER NOT NULL DEFAULT 0,
	  following_count INTEGER NOT NULL DEFAULT 0,
	  is_private INTEGER NOT NULL DEFAULT 0,
	  bio TEXT,
	  collected_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_users_id_ts ON users(user_id, collected_at);
	CREATE INDEX IF NOT EXISTS idx_users_name_ts ON users(username, collected_at);
	CREATE TABLE IF NOT EXISTS posts (
	  post_id TEXT PRIMARY KEY,
	  author_id TEXT NOT NULL,
	  url TEXT,
	  caption TEXT,
	  media_type TEXT,
	  hashtags TEXT,
	  mentions TEXT,
	  like_count INTEGER NOT NULL DEFAULT 0,
	  comment_count INTEGER NOT NULL DEFAULT 0,
	  posted_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id);
	CREATE TABLE IF NOT EXISTS follow_edges (
	  source_id TEXT NOT NULL,
	  target_id TEXT NOT NULL,
	  depth INTEGER NOT NULL,
	  discovered_at INTEGER NOT NULL,
	  PRIMARY KEY (source_id, target_id)
	);
	CREATE INDEX IF NOT EXISTS idx_edges_depth ON follow_edges(depth);
	CREATE TABLE IF NOT EXISTS reports (
	  id TEXT PRIMARY KEY,
	  user_id TEXT NOT NULL,
	  generated_at INTEGER NOT NULL,
	  payload TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reports_user_ts ON reports(user_id, generated_at);
	CREATE TABLE IF NOT EXISTS cursors (
	  key TEXT PRIMARY KEY,
	  value TEXT NOT NULL
	);
	`)
	return err
}

// PutUserSnapshot appends a user snapshot. History is never updated in
// place; reads take the latest row per user.
func (d *DB) PutUserSnapshot(ctx context.Context, u model.User) error {
	collected := u.CollectedAt
	if collected.IsZero() {
		collected = time.Now().UTC()
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO users(user_id, username, full_name, follower_count, following_count, is_private, bio, collected_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		u.ID, u.Username, u.FullName, u.FollowerCount, u.FollowingCount, boolInt(u.IsPrivate), u.Bio, collected.Unix())
	return err
}

// LatestUser returns the newest snapshot for a user id.
func (d *DB) LatestUser(ctx context.Context, userID string) (model.User, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT user_id, username, full_name, follower_count, following_count, is_private, bio, collected_at
		 FROM users WHERE user_id=? ORDER BY collected_at DESC, id DESC LIMIT 1`, userID)
	return scanUser(row)
}

// LatestUserByUsername returns the newest snapshot for a username.
func (d *DB) LatestUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT user_id, username, full_name, follower_count, following_count, is_private, bio, collected_at
		 FROM users WHERE username=? ORDER BY collected_at DESC, id DESC LIMIT 1`, username)
	return scanUser(row)
}

// FollowerCounts returns the latest known follower count per user id.
func (d *DB) FollowerCounts(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := d.sql.QueryContext(ctx, fmt.Sprintf(
		`SELECT user_id, follower_count FROM users WHERE id IN
		   (SELECT MAX(id) FROM users WHERE user_id IN (%s) GROUP BY user_id)`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// PutPost stores a post, replacing any earlier collection of the same id.
func (d *DB) PutPost(ctx context.Context, p model.Post) error {
	tags, _ := json.Marshal(p.Hashtags)
	mentions, _ := json.Marshal(p.Mentions)
	_, err := d.sql.ExecContext(ctx,
		`INSERT OR REPLACE INTO posts(post_id, author_id, url, caption, media_type, hashtags, mentions, like_count, comment_count, posted_at)
		 VALUES(?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.AuthorID, p.URL, p.Caption, string(p.MediaType), string(tags), string(mentions),
		p.LikeCount, p.CommentCount, p.PostedAt.Unix())
	return err
}

// PostsByAuthors returns all stored posts from the given authors,
// ordered by posted_at then id so repeated reads are identical.
func (d *DB) PostsByAuthors(ctx context.Context, authorIDs []string) ([]model.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(authorIDs)), ",")
	args := make([]any, len(authorIDs))
	for i, id := range authorIDs {
		args[i] = id
	}
	rows, err := d.sql.QueryContext(ctx, fmt.Sprintf(
		`SELECT post_id, author_id, url, caption, media_type, hashtags, mentions, like_count, comment_count, posted_at
		 FROM posts WHERE author_id IN (%s) ORDER BY posted_at, post_id`, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PutEdges stores discovered follow edges, replacing earlier
// discoveries of the same pair.
func (d *DB) PutEdges(ctx context.Context, edges []model.FollowEdge) error {
	if len(edges) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO follow_edges(source_id, target_id, depth, discovered_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.SourceID, e.TargetID, e.Depth, e.DiscoveredAt.Unix()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Edges returns all stored follow edges in a stable order.
func (d *DB) Edges(ctx context.Context) ([]model.FollowEdge, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT source_id, target_id, depth, discovered_at FROM follow_edges ORDER BY depth, source_id, target_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.FollowEdge
	for rows.Next() {
		var e model.FollowEdge
		var ts int64
		if err := rows.Scan(&e.SourceID, &e.TargetID, &e.Depth, &ts); err != nil {
			return nil, err
		}
		e.DiscoveredAt = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// AppendReport stores a generated report. Reports only ever append.
func (d *DB) AppendReport(ctx context.Context, r model.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = d.sql.ExecContext(ctx,
		`INSERT INTO reports(id, user_id, generated_at, payload) VALUES(?,?,?,?)`,
		r.ID, r.UserID, r.GeneratedAt.Unix(), string(payload))
	return err
}

// LastReport returns the newest report for a user.
func (d *DB) LastReport(ctx context.Context, userID string) (model.Report, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT payload FROM reports WHERE user_id=? ORDER BY generated_at DESC LIMIT 1`, userID)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Report{}, fmt.Errorf("no report for user %s", userID)
		}
		return model.Report{}, err
	}
	var r model.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return model.Report{}, err
	}
	return r, nil
}

// SaveCursor stores an incremental-collection cursor.
func (d *DB) SaveCursor(ctx context.Context, key, value string) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO cursors(key, value) VALUES(?,?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

// LoadCursor returns a stored cursor value, empty when absent.
func (d *DB) LoadCursor(ctx context.Context, key string) (string, error) {
	row := d.sql.QueryRowContext(ctx, `SELECT value FROM cursors WHERE key=?`, key)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var private int
	var ts int64
	if err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.FollowerCount, &u.FollowingCount, &private, &u.Bio, &ts); err != nil {
		return u, err
	}
	u.IsPrivate = private != 0
	u.CollectedAt = time.Unix(ts, 0).UTC()
	return u, nil
}

func scanPost(row rowScanner) (model.Post, error) {
	var p model.Post
	var media, tags, mentions string
	var ts int64
	if err := row.Scan(&p.ID, &p.AuthorID, &p.URL, &p.Caption, &media, &tags, &mentions, &p.LikeCount, &p.CommentCount, &ts); err != nil {
		return p, err
	}
	p.MediaType = model.MediaType(media)
	_ = json.Unmarshal([]byte(tags), &p.Hashtags)
	_ = json.Unmarshal([]byte(mentions), &p.Mentions)
	p.PostedAt = time.Unix(ts, 0).UTC()
	return p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
