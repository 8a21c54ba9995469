package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/playsignal/pkg/score"
	"github.com/elonfeng/playsignal/pkg/source"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOutOfRange is returned when an answer lies outside its stat bounds.
	ErrOutOfRange = errors.New("answer out of range")
	// ErrFormInactive is returned when submitting to a closed form.
	ErrFormInactive = errors.New("form is not accepting responses")
	// ErrUnknownQuestion is returned when an answer names a question that is
	// not part of the form.
	ErrUnknownQuestion = errors.New("question is not part of form")
)

// Project is a game collecting playtest feedback.
type Project struct {
	ID          string    `db:"id" json:"id"`
	Slug        string    `db:"slug" json:"slug"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	FeedURL     string    `db:"feed_url" json:"feed_url,omitempty"`
	Public      bool      `db:"public" json:"public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Stat is a bounded attribute of a project that questions ask about.
type Stat struct {
	ID        string  `db:"id" json:"id"`
	ProjectID string  `db:"project_id" json:"project_id"`
	Name      string  `db:"name" json:"name"`
	Category  string  `db:"category" json:"category,omitempty"`
	MinValue  float64 `db:"min_value" json:"min_value"`
	MaxValue  float64 `db:"max_value" json:"max_value"`
	Weight    float64 `db:"weight" json:"weight"`
	Position  int     `db:"position" json:"position"`
}

// Score converts the stored stat into its scoring form.
func (s Stat) Score() score.Stat {
	return score.Stat{
		ID:       s.ID,
		Name:     s.Name,
		Category: s.Category,
		Min:      s.MinValue,
		Max:      s.MaxValue,
		Weight:   s.Weight,
	}
}

// Form is a set of questions for one project.
type Form struct {
	ID        string    `db:"id" json:"id"`
	ProjectID string    `db:"project_id" json:"project_id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Question binds a stat to a form.
type Question struct {
	ID       string `db:"id" json:"id"`
	FormID   string `db:"form_id" json:"form_id"`
	StatID   string `db:"stat_id" json:"stat_id"`
	Position int    `db:"position" json:"position"`
}

// AnswerInput is one submitted value.
type AnswerInput struct {
	QuestionID string  `json:"question_id"`
	Value      float64 `json:"value"`
}

// Response is one completed form submission.
type Response struct {
	ID         string        `db:"id" json:"id"`
	FormID     string        `db:"form_id" json:"form_id"`
	Comment    string        `db:"comment" json:"comment,omitempty"`
	Respondent string        `db:"respondent" json:"respondent,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	Answers    []AnswerInput `db:"-" json:"answers"`
}

// ResponseCount holds a project's response totals.
type ResponseCount struct {
	ProjectID string `db:"project_id"`
	Recent    int    `db:"recent"`
	Total     int    `db:"total"`
}

// ProjectListOpts controls project listing.
type ProjectListOpts struct {
	PublicOnly bool
	WithFeed   bool
}

// Store is the persistence interface.
type Store interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*Project, error)
	ListProjects(ctx context.Context, opts ProjectListOpts) ([]Project, error)

	CreateStat(ctx context.Context, s *Stat) error
	ListStats(ctx context.Context, projectID string) ([]Stat, error)
	CreateForm(ctx context.Context, f *Form) error
	AddQuestion(ctx context.Context, q *Question) error

	SubmitResponse(ctx context.Context, r *Response) error
	ListAnswers(ctx context.Context, projectID string) ([]score.Answer, error)
	ListResponseTimes(ctx context.Context, projectID string, since time.Time) ([]time.Time, error)
	ResponseCounts(ctx context.Context, since time.Time) ([]ResponseCount, error)

	AddFollow(ctx context.Context, projectID, followerID string) error
	ListFollowTimes(ctx context.Context, projectID string) ([]time.Time, error)
	FollowerCounts(ctx context.Context) (map[string]int, error)

	UpsertUpdate(ctx context.Context, u *source.Update) error
	ListUpdateTimes(ctx context.Context, projectID string) ([]time.Time, error)
	LatestUpdates(ctx context.Context) (map[string]time.Time, error)

	AlertSent(ctx context.Context, fingerprint string) (bool, error)
	MarkAlertSent(ctx context.Context, fingerprint, projectID, insight string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func newID() string {
	return uuid.NewString()
}

// CreateProject inserts or updates a project. Writing an unchanged project
// keeps its stored updated_at; p's timestamps are refreshed from the stored
// row.
func (s *SQLiteStore) CreateProject(ctx context.Context, p *Project) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, slug, name, description, feed_url, public, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			name = excluded.name,
			description = excluded.description,
			feed_url = excluded.feed_url,
			public = excluded.public,
			updated_at = CASE
				WHEN projects.slug IS NOT excluded.slug
					OR projects.name IS NOT excluded.name
					OR projects.description IS NOT excluded.description
					OR projects.feed_url IS NOT excluded.feed_url
					OR projects.public IS NOT excluded.public
				THEN excluded.updated_at
				ELSE projects.updated_at
			END
	`, p.ID, p.Slug, p.Name, p.Description, p.FeedURL, p.Public, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create project %s: %w", p.Slug, err)
	}

	stored, err := s.GetProject(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt, p.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.getProject(ctx, "id", id)
}

func (s *SQLiteStore) GetProjectBySlug(ctx context.Context, slug string) (*Project, error) {
	return s.getProject(ctx, "slug", slug)
}

func (s *SQLiteStore) getProject(ctx context.Context, column, value string) (*Project, error) {
	var p Project
	err := s.db.GetContext(ctx, &p, "SELECT * FROM projects WHERE "+column+" = ?", value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", value, err)
	}
	return &p, nil
}

func (s *SQLiteStore) ListProjects(ctx context.Context, opts ProjectListOpts) ([]Project, error) {
	query := "SELECT * FROM projects WHERE 1=1"
	if opts.PublicOnly {
		query += " AND public = 1"
	}
	if opts.WithFeed {
		query += " AND feed_url != ''"
	}
	query += " ORDER BY created_at"

	var projects []Project
	if err := s.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *SQLiteStore) CreateStat(ctx context.Context, st *Stat) error {
	if st.ID == "" {
		st.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stats (id, project_id, name, category, min_value, max_value, weight, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			min_value = excluded.min_value,
			max_value = excluded.max_value,
			weight = excluded.weight,
			position = excluded.position
	`, st.ID, st.ProjectID, st.Name, st.Category, st.MinValue, st.MaxValue, st.Weight, st.Position)
	if err != nil {
		return fmt.Errorf("create stat %s: %w", st.Name, err)
	}
	return nil
}

func (s *SQLiteStore) ListStats(ctx context.Context, projectID string) ([]Stat, error) {
	var stats []Stat
	err := s.db.SelectContext(ctx, &stats,
		"SELECT * FROM stats WHERE project_id = ? ORDER BY position, name", projectID)
	if err != nil {
		return nil, fmt.Errorf("list stats %s: %w", projectID, err)
	}
	return stats, nil
}

func (s *SQLiteStore) CreateForm(ctx context.Context, f *Form) error {
	if f.ID == "" {
		f.ID = newID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forms (id, project_id, name, active, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active
	`, f.ID, f.ProjectID, f.Name, f.Active, f.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create form %s: %w", f.Name, err)
	}
	return nil
}

// AddQuestion inserts a question or moves an existing one. A question never
// changes its stat once stored, so its answers stay with that stat.
func (s *SQLiteStore) AddQuestion(ctx context.Context, q *Question) error {
	if q.ID == "" {
		q.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (id, form_id, stat_id, position)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position
	`, q.ID, q.FormID, q.StatID, q.Position)
	if err != nil {
		return fmt.Errorf("add question to form %s: %w", q.FormID, err)
	}
	return nil
}
