package tsengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width UTC so that lexical order of stored timestamps
// matches chronological order on both SQLite and PostgreSQL.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store wraps the relational database that holds blog posts, leads and
// settings. It speaks SQLite (default) or PostgreSQL.
type Store struct {
	db       *sql.DB
	postgres bool
	now      func() time.Time
}

// NewStore opens the database named by dsn and ensures the schema exists.
// A dsn starting with postgres:// or postgresql:// selects PostgreSQL; any
// other value is treated as a SQLite file path whose directory is created
// if needed.
func NewStore(dsn string) (*Store, error) {
	if isPostgresDSN(dsn) {
		return openPostgres(dsn)
	}
	return openSQLite(dsn)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openSQLite(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// Connection-scoped pragmas go in the DSN so every pooled connection
	// gets them; journal_mode is persistent and set once below.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	return initStore(db, false)
}

func openPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return initStore(db, true)
}

func initStore(db *sql.DB, postgres bool) (*Store, error) {
	s := &Store{db: db, postgres: postgres, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS blog_posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    excerpt TEXT NOT NULL,
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    featured_image TEXT NOT NULL DEFAULT '',
    meta_title TEXT NOT NULL DEFAULT '',
    meta_description TEXT NOT NULL DEFAULT '',
    published_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_blog_posts_published_at ON blog_posts(published_at)`,
	`CREATE TABLE IF NOT EXISTS leads (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    resort_name TEXT NOT NULL DEFAULT '',
    annual_maintenance_fee BIGINT,
    purchase_price BIGINT,
    years_owned BIGINT,
    location TEXT NOT NULL DEFAULT '',
    calculator_results TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at)`,
	`CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,
}

func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isUniqueViolation recognizes unique-constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func newID() string {
	return uuid.NewString()
}

// --- Blog posts ---

const postColumns = `id, title, slug, excerpt, content, category, featured_image, meta_title, meta_description, published_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (BlogPost, error) {
	var p BlogPost
	var published, updated string
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.Category,
		&p.FeaturedImage, &p.MetaTitle, &p.MetaDescription, &published, &updated); err != nil {
		return BlogPost{}, err
	}
	p.PublishedAt = parseTime(published)
	p.UpdatedAt = parseTime(updated)
	return p, nil
}

// ListPosts returns every post, newest first. It never returns a nil slice.
func (s *Store) ListPosts(ctx context.Context) ([]BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM blog_posts ORDER BY published_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a post by id.
func (s *Store) GetPost(ctx context.Context, id string) (BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+postColumns+` FROM blog_posts WHERE id = ?`), id))
}

// GetPostBySlug returns a post by its slug.
func (s *Store) GetPostBySlug(ctx context.Context, slug string) (BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+postColumns+` FROM blog_posts WHERE slug = ?`), slug))
}

// CreatePost inserts a new post, assigning its id and timestamps.
func (s *Store) CreatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	p.ID = newID()
	now := s.timestamp()
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO blog_posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.Category, p.FeaturedImage, p.MetaTitle, p.MetaDescription, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return BlogPost{}, NewValidationError("slug", "already in use")
		}
		return BlogPost{}, fmt.Errorf("insert post: %w", err)
	}
	p.PublishedAt = parseTime(now)
	p.UpdatedAt = p.PublishedAt
	return p, nil
}

// UpdatePost overwrites the editable fields of an existing post and bumps
// its updated_at. It returns ErrNotFound when no post has p.ID.
func (s *Store) UpdatePost(ctx context.Context, p BlogPost) (BlogPost, error) {
	now := s.timestamp()
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE blog_posts SET title = ?, slug = ?, excerpt = ?, content = ?, category = ?,
		featured_image = ?, meta_title = ?, meta_description = ?, updated_at = ? WHERE id = ?`),
		p.Title, p.Slug, p.Excerpt, p.Content, p.Category, p.FeaturedImage, p.MetaTitle, p.MetaDescription, now, p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return BlogPost{}, NewValidationError("slug", "already in use")
		}
		return BlogPost{}, fmt.Errorf("update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return BlogPost{}, err
	}
	if n == 0 {
		return BlogPost{}, ErrNotFound
	}
	return s.GetPost(ctx, p.ID)
}

// DeletePost removes a post by id. Deleting a missing post is not an error.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM blog_posts WHERE id = ?`), id)
	return err
}

// --- Leads ---

const leadColumns = `id, source, name, email, phone, message, resort_name, annual_maintenance_fee, purchase_price, years_owned, location, calculator_results, created_at`

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	var fee, price, years sql.NullInt64
	var created string
	if err := row.Scan(&l.ID, &l.Source, &l.Name, &l.Email, &l.Phone, &l.Message, &l.ResortName,
		&fee, &price, &years, &l.Location, &l.CalculatorResults, &created); err != nil {
		return Lead{}, err
	}
	l.AnnualMaintenanceFee = fromNullInt(fee)
	l.PurchasePrice = fromNullInt(price)
	l.YearsOwned = fromNullInt(years)
	l.CreatedAt = parseTime(created)
	return l, nil
}

func fromNullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func toNullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// CreateLead persists a lead, assigning its id and creation time.
func (s *Store) CreateLead(ctx context.Context, l Lead) (Lead, error) {
	l.ID = newID()
	created := s.timestamp()
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		l.ID, l.Source, l.Name, l.Email, l.Phone, l.Message, l.ResortName,
		toNullInt(l.AnnualMaintenanceFee), toNullInt(l.PurchasePrice), toNullInt(l.YearsOwned),
		l.Location, l.CalculatorResults, created)
	if err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	l.CreatedAt = parseTime(created)
	return l, nil
}

// ListLeads returns every lead, newest first. It never returns a nil slice.
func (s *Store) ListLeads(ctx context.Context) ([]Lead, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := []Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// GetLead returns a lead by id.
func (s *Store) GetLead(ctx context.Context, id string) (Lead, error) {
	return scanLead(s.db.QueryRowContext(ctx, s.rebind(`SELECT `+leadColumns+` FROM leads WHERE id = ?`), id))
}

// --- Settings ---

const upsertSetting = `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

// ListSettings returns every stored setting ordered by key.
func (s *Store) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []Setting{}
	for rows.Next() {
		var st Setting
		var updated string
		if err := rows.Scan(&st.Key, &st.Value, &updated); err != nil {
			return nil, err
		}
		st.UpdatedAt = parseTime(updated)
		settings = append(settings, st)
	}
	return settings, rows.Err()
}

// GetSetting returns the setting stored under key. ok is false when the key
// has never been set; callers should fall back to their default.
func (s *Store) GetSetting(ctx context.Context, key string) (st Setting, ok bool, err error) {
	var updated string
	err = s.db.QueryRowContext(ctx, s.rebind(`SELECT key, value, updated_at FROM settings WHERE key = ?`), key).
		Scan(&st.Key, &st.Value, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Setting{}, false, nil
	}
	if err != nil {
		return Setting{}, false, err
	}
	st.UpdatedAt = parseTime(updated)
	return st, true, nil
}

// SetSetting upserts a single key. The primary key on settings.key keeps
// concurrent writers from ever producing two rows.
func (s *Store) SetSetting(ctx context.Context, key, value string) (Setting, error) {
	now := s.timestamp()
	if _, err := s.db.ExecContext(ctx, s.rebind(upsertSetting), key, value, now); err != nil {
		return Setting{}, fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return Setting{Key: key, Value: value, UpdatedAt: parseTime(now)}, nil
}

// SetSettings upserts several keys in one transaction.
func (s *Store) SetSettings(ctx context.Context, values map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertSetting))
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := s.timestamp()
	for k, v := range values {
		if _, err := stmt.ExecContext(ctx, k, v, now); err != nil {
			return fmt.Errorf("upsert setting %s: %w", k, err)
		}
	}
	return tx.Commit()
}
