package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type ProblemFilter struct {
	Levels     []string
	Categories []string
	Search     string
	Limit      int
	Offset     int
}

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sqlx.Tx, problem *model.Problem) error
	FindProblemBySerial(ctx context.Context, serial int64) (*model.Problem, error)
	ListProblems(ctx context.Context, filter ProblemFilter) ([]model.Problem, int, error)

	AddStarterCode(ctx context.Context, tx *sqlx.Tx, problemID string, code map[string]string) error
	GetStarterCode(ctx context.Context, problemID string) (map[string]string, error)

	AddTestcases(ctx context.Context, tx *sqlx.Tx, problemID string, kind model.TestcaseKind, testcases []model.Testcase) error
	GetTestcases(ctx context.Context, problemID string, kind model.TestcaseKind) ([]model.Testcase, error)
}

type pgProblemRepository struct {
	db *sqlx.DB
}

func NewPgProblemRepository(db *sqlx.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) ext(tx *sqlx.Tx) sqlx.ExtContext {
	if tx != nil {
		return tx
	}
	return r.db
}

// CreateProblem inserts the problem row and fills in the serial and timestamps assigned by the database.
func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sqlx.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, name, slug, level, category, description)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING serial, created_at, updated_at`

	err := r.ext(tx).QueryRowxContext(ctx, query, p.ID, p.Name, p.Slug, p.Level, p.Category, p.Description).
		Scan(&p.Serial, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this name already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindProblemBySerial(ctx context.Context, serial int64) (*model.Problem, error) {
	query := `SELECT id, serial, name, slug, level, category, description, created_at, updated_at
	          FROM problems WHERE serial = $1`

	problem := &model.Problem{}
	if err := sqlx.GetContext(ctx, r.db, problem, query, serial); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemBySerial: %w", err)
	}
	return problem, nil
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, f ProblemFilter) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if len(f.Levels) > 0 {
		conditions = append(conditions, fmt.Sprintf("level = ANY($%d)", argID))
		args = append(args, pq.Array(f.Levels))
		argID++
	}
	if len(f.Categories) > 0 {
		conditions = append(conditions, fmt.Sprintf("category = ANY($%d)", argID))
		args = append(args, pq.Array(f.Categories))
		argID++
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argID))
		args = append(args, "%"+f.Search+"%")
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, "SELECT COUNT(*) FROM problems"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	query := `SELECT id, serial, name, slug, level, category, description, created_at, updated_at
	          FROM problems` + where + fmt.Sprintf(" ORDER BY serial ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, f.Limit, f.Offset)

	problems := []model.Problem{}
	if err := sqlx.SelectContext(ctx, r.db, &problems, query, args...); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	return problems, total, nil
}

func (r *pgProblemRepository) AddStarterCode(ctx context.Context, tx *sqlx.Tx, problemID string, code map[string]string) error {
	if len(code) == 0 {
		return nil
	}
	rows := make([]model.StarterCode, 0, len(code))
	for lang, src := range code {
		rows = append(rows, model.StarterCode{ProblemID: problemID, Language: lang, Code: src})
	}
	query := `INSERT INTO problem_starter_code (problem_id, language, code)
	          VALUES (:problem_id, :language, :code)`
	if _, err := sqlx.NamedExecContext(ctx, r.ext(tx), query, rows); err != nil {
		return fmt.Errorf("pgProblemRepository.AddStarterCode: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) GetStarterCode(ctx context.Context, problemID string) (map[string]string, error) {
	var rows []model.StarterCode
	query := `SELECT problem_id, language, code FROM problem_starter_code WHERE problem_id = $1`
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, problemID); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetStarterCode: %w", err)
	}
	code := make(map[string]string, len(rows))
	for _, row := range rows {
		code[row.Language] = row.Code
	}
	return code, nil
}

// AddTestcases stores the rows in the given order; sort_order is assigned from the slice position.
func (r *pgProblemRepository) AddTestcases(ctx context.Context, tx *sqlx.Tx, problemID string, kind model.TestcaseKind, testcases []model.Testcase) error {
	if len(testcases) == 0 {
		return nil
	}
	rows := make([]model.Testcase, len(testcases))
	for i, tc := range testcases {
		tc.ProblemID = problemID
		tc.Kind = kind
		tc.SortOrder = i + 1
		rows[i] = tc
	}
	query := `INSERT INTO problem_testcases (id, problem_id, kind, input, output, sort_order)
	          VALUES (:id, :problem_id, :kind, :input, :output, :sort_order)`
	if _, err := sqlx.NamedExecContext(ctx, r.ext(tx), query, rows); err != nil {
		return fmt.Errorf("pgProblemRepository.AddTestcases %s: %w", kind, err)
	}
	return nil
}

func (r *pgProblemRepository) GetTestcases(ctx context.Context, problemID string, kind model.TestcaseKind) ([]model.Testcase, error) {
	testcases := []model.Testcase{}
	query := `SELECT id, problem_id, kind, input, output, sort_order
	          FROM problem_testcases WHERE problem_id = $1 AND kind = $2 ORDER BY sort_order ASC`
	if err := sqlx.SelectContext(ctx, r.db, &testcases, query, problemID, kind); err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestcases: %w", err)
	}
	return testcases, nil
}
