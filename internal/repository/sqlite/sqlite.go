package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"organigram/internal/domain"
	"organigram/internal/repository"
)

var _ repository.DirectoryRepository = (*Repository)(nil)

// Repository implements repository.DirectoryRepository using SQLite
type Repository struct {
	db   *sql.DB
	path string
}

// New creates a new SQLite repository
func New(dbPath string) (*Repository, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	if dbPath == ":memory:" {
		// Every connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	repo := &Repository{db: db, path: dbPath}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS agents (
		path TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		dn TEXT NOT NULL,
		id INTEGER,
		last_name TEXT NOT NULL DEFAULT '',
		first_name TEXT,
		email TEXT,
		badge TEXT,
		title TEXT,
		manager TEXT,
		status INTEGER NOT NULL DEFAULT 0,
		replaces TEXT,
		other_posts JSON
	);

	CREATE TABLE IF NOT EXISTS containers (
		path TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		dn TEXT NOT NULL,
		name TEXT,
		short_name TEXT,
		manager TEXT
	);

	CREATE TABLE IF NOT EXISTS container_attributes (
		container_path TEXT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (container_path, name),
		FOREIGN KEY (container_path) REFERENCES containers(path) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_agents_seq ON agents(seq);
	CREATE INDEX IF NOT EXISTS idx_containers_seq ON containers(seq);
	`

	_, err := r.db.Exec(schema)
	return err
}

// Name returns the source name
func (r *Repository) Name() string {
	return "sqlite:" + r.path
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

const agentColumns = `dn, id, last_name, first_name, email, badge, title, manager, status, replaces, other_posts`

func scanAgent(scan func(dest ...any) error) (domain.AgentRecord, error) {
	var rec domain.AgentRecord
	var id sql.NullInt64
	var status int64
	var firstName, email, badge, title, manager, replaces, otherPosts sql.NullString
	if err := scan(&rec.DN, &id, &rec.LastName, &firstName, &email, &badge, &title, &manager, &status, &replaces, &otherPosts); err != nil {
		return rec, err
	}
	rec.ID = id.Int64
	rec.FirstName = nullToString(firstName)
	rec.Email = nullToString(email)
	rec.Badge = nullToString(badge)
	rec.Title = nullToString(title)
	rec.Manager = nullToString(manager)
	rec.Status = domain.Status(status)
	rec.Replaces = nullToString(replaces)

	posts, err := unmarshalStrings(otherPosts)
	if err != nil {
		return rec, err
	}
	rec.OtherPosts = posts
	return rec, nil
}

// Lookup returns the stored entry for path, or nil when unknown
func (r *Repository) Lookup(ctx context.Context, path string) (*domain.DirectoryEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE path = ?`, domain.NormalizePath(path))
	rec, err := scanAgent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to look up %s", path)
	}
	entry := rec.Entry()
	return &entry, nil
}

// Agents returns the agent records within base, in import order
func (r *Repository) Agents(ctx context.Context, base string) ([]domain.AgentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT path, `+agentColumns+` FROM agents ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query agents")
	}
	defer rows.Close()

	base = domain.NormalizePath(base)
	var out []domain.AgentRecord
	for rows.Next() {
		var path string
		rec, err := scanAgent(func(dest ...any) error {
			return rows.Scan(append([]any{&path}, dest...)...)
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan agent")
		}
		if domain.IsWithin(path, base) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating agents")
	}
	return out, nil
}

// Containers returns the container records within base, in import order
func (r *Repository) Containers(ctx context.Context, base string) ([]domain.ContainerRecord, error) {
	attrs, err := r.attributes(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT path, dn, name, short_name, manager FROM containers ORDER BY seq`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query containers")
	}
	defer rows.Close()

	base = domain.NormalizePath(base)
	var out []domain.ContainerRecord
	for rows.Next() {
		var (
			path, dn                 string
			name, shortName, manager sql.NullString
		)
		if err := rows.Scan(&path, &dn, &name, &shortName, &manager); err != nil {
			return nil, errors.Wrap(err, "failed to scan container")
		}
		if !domain.IsWithin(path, base) {
			continue
		}
		out = append(out, domain.ContainerRecord{
			DN:         dn,
			Name:       nullToString(name),
			ShortName:  nullToString(shortName),
			Manager:    nullToStringPtr(manager),
			Attributes: attrs[path],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating containers")
	}
	return out, nil
}

func (r *Repository) attributes(ctx context.Context) (map[string]map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT container_path, name, value FROM container_attributes`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query container attributes")
	}
	defer rows.Close()

	attrs := make(map[string]map[string]string)
	for rows.Next() {
		var path, name, value string
		if err := rows.Scan(&path, &name, &value); err != nil {
			return nil, errors.Wrap(err, "failed to scan container attribute")
		}
		if attrs[path] == nil {
			attrs[path] = make(map[string]string)
		}
		attrs[path][name] = value
	}
	return attrs, errors.Wrap(rows.Err(), "error iterating container attributes")
}

// Snapshot returns every stored record
func (r *Repository) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot()

	containers, err := r.Containers(ctx, "")
	if err != nil {
		return nil, err
	}
	agents, err := r.Agents(ctx, "")
	if err != nil {
		return nil, err
	}
	snap.Containers = append(snap.Containers, containers...)
	snap.Agents = append(snap.Agents, agents...)
	return snap, nil
}

// Counts returns the number of stored agents and containers
func (r *Repository) Counts(ctx context.Context) (agents, containers int, err error) {
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents`).Scan(&agents); err != nil {
		return 0, 0, errors.Wrap(err, "failed to count agents")
	}
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM containers`).Scan(&containers); err != nil {
		return 0, 0, errors.Wrap(err, "failed to count containers")
	}
	return agents, containers, nil
}

// ImportSnapshot replaces all data with the provided snapshot.
// Records repeating an already imported path are skipped.
func (r *Repository) ImportSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	// Clear existing data (order matters due to foreign keys)
	for _, table := range []string{"container_attributes", "containers", "agents"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return errors.Wrapf(err, "failed to clear %s", table)
		}
	}

	containerStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO containers (path, seq, dn, name, short_name, manager)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare container statement")
	}
	defer containerStmt.Close()

	attrStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO container_attributes (container_path, name, value) VALUES (?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare attribute statement")
	}
	defer attrStmt.Close()

	for seq, c := range snap.Containers {
		path := domain.NormalizePath(c.DN)
		res, err := containerStmt.ExecContext(ctx, path, seq, c.DN,
			stringToNull(c.Name), stringToNull(c.ShortName), stringPtrToNull(c.Manager))
		if err != nil {
			return errors.Wrapf(err, "failed to insert container %s", c.DN)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		for name, value := range c.Attributes {
			if _, err := attrStmt.ExecContext(ctx, path, name, value); err != nil {
				return errors.Wrapf(err, "failed to insert attribute %s of %s", name, c.DN)
			}
		}
	}

	agentStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO agents (path, seq, `+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare agent statement")
	}
	defer agentStmt.Close()

	for seq, a := range snap.Agents {
		posts, err := marshalToNull(a.OtherPosts)
		if err != nil {
			return errors.Wrapf(err, "agent %s", a.DN)
		}
		_, err = agentStmt.ExecContext(ctx, domain.NormalizePath(a.DN), seq, a.DN,
			int64ToNull(a.ID), a.LastName, stringToNull(a.FirstName), stringToNull(a.Email),
			stringToNull(a.Badge), stringToNull(a.Title), stringToNull(a.Manager),
			int64(a.Status), stringToNull(a.Replaces), posts)
		if err != nil {
			return errors.Wrapf(err, "failed to insert agent %s", a.DN)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value, updated_at) VALUES ('imported_agents', ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, len(snap.Agents)); err != nil {
		return errors.Wrap(err, "failed to update metadata")
	}

	return tx.Commit()
}
