package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/domain/repository"
	"tle_zone_studio/internal/platform/config"
	"tle_zone_studio/internal/platform/logger"
	"tle_zone_studio/internal/platform/markdown"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	excerptRunes    = 160
)

type ProblemService struct {
	problemRepo repository.ProblemRepository
	tx          repository.Transactor
	cache       repository.ProblemCache // optional
	renderer    *markdown.Renderer
	levels      []string
	categories  []string
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	tx repository.Transactor,
	cache repository.ProblemCache,
	cfg *config.Config,
) *ProblemService {
	return &ProblemService{
		problemRepo: problemRepo,
		tx:          tx,
		cache:       cache,
		renderer:    markdown.NewRenderer(),
		levels:      cfg.ProblemLevels,
		categories:  cfg.ProblemCategories,
	}
}

// Meta returns the option lists the authoring form is built from.
func (s *ProblemService) Meta() model.ProblemMeta {
	categories := make([]model.CategoryOption, 0, len(s.categories))
	for _, c := range s.categories {
		categories = append(categories, model.CategoryOption{Value: c, Label: model.CategoryDisplayName(c)})
	}
	return model.ProblemMeta{
		Levels:     slices.Clone(s.levels),
		Categories: categories,
		Languages:  model.SupportedLanguages(),
	}
}

func (s *ProblemService) validateDraft(d model.ProblemDraft) error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if d.Level == "" {
		missing = append(missing, "level")
	}
	if d.Category == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return common.Errorf("missing required fields: %s: %w", strings.Join(missing, ", "), common.ErrValidation)
	}
	if len(s.levels) > 0 && !slices.Contains(s.levels, d.Level) {
		return common.Errorf("unknown level %q: %w", d.Level, common.ErrValidation)
	}
	if len(s.categories) > 0 && !slices.Contains(s.categories, d.Category) {
		return common.Errorf("unknown category %q: %w", d.Category, common.ErrValidation)
	}
	if slug.Make(d.Name) == "" {
		return common.Errorf("name %q does not produce a usable slug: %w", d.Name, common.ErrValidation)
	}
	return nil
}

func withIDs(testcases []model.Testcase) []model.Testcase {
	out := make([]model.Testcase, len(testcases))
	for i, tc := range testcases {
		if tc.ID == "" {
			tc.ID = uuid.NewString()
		}
		out[i] = tc
	}
	return out
}

// CreateProblem stores a submitted draft. The problem, its starter code and both
// testcase groups are written in a single transaction.
func (s *ProblemService) CreateProblem(ctx context.Context, d model.ProblemDraft) (*model.Problem, error) {
	if err := s.validateDraft(d); err != nil {
		return nil, err
	}

	problem := &model.Problem{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(d.Name),
		Slug:            slug.Make(d.Name),
		Level:           model.ProblemLevel(d.Level),
		Category:        d.Category,
		Description:     d.Description,
		StarterCode:     d.StarterCode,
		SampleTestcases: withIDs(d.SampleTestcases),
		HiddenTestcases: withIDs(d.HiddenTestcases),
	}

	err := s.tx.WithinTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
			return err
		}
		if err := s.problemRepo.AddStarterCode(ctx, tx, problem.ID, problem.StarterCode); err != nil {
			return common.Errorf("failed to add starter code: %w", err)
		}
		if err := s.problemRepo.AddTestcases(ctx, tx, problem.ID, model.TestcaseSample, problem.SampleTestcases); err != nil {
			return common.Errorf("failed to add sample testcases: %w", err)
		}
		if err := s.problemRepo.AddTestcases(ctx, tx, problem.ID, model.TestcaseHidden, problem.HiddenTestcases); err != nil {
			return common.Errorf("failed to add hidden testcases: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Infow("problem created", "serial", problem.Serial, "slug", problem.Slug, "draft", d.SerialID)
	s.warmCache(ctx, problem)
	return problem, nil
}

// SubmitProblem lets the service act as the direct submission path.
func (s *ProblemService) SubmitProblem(ctx context.Context, d model.ProblemDraft) (*model.Problem, error) {
	return s.CreateProblem(ctx, d)
}

func (s *ProblemService) warmCache(ctx context.Context, p *model.Problem) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, p); err != nil {
		logger.Log.Warnw("problem cache write failed", "serial", p.Serial, "error", err)
	}
}

// GetProblem returns the public record for serial, hidden testcases excluded.
func (s *ProblemService) GetProblem(ctx context.Context, serial int64) (*model.Problem, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, serial)
		if err != nil {
			logger.Log.Warnw("problem cache read failed", "serial", serial, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	problem, err := s.problemRepo.FindProblemBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if problem.StarterCode, err = s.problemRepo.GetStarterCode(ctx, problem.ID); err != nil {
		return nil, err
	}
	if problem.SampleTestcases, err = s.problemRepo.GetTestcases(ctx, problem.ID, model.TestcaseSample); err != nil {
		return nil, err
	}

	public := problem.Public()
	s.warmCache(ctx, public)
	return public, nil
}

type ProblemPage struct {
	Problems []model.Problem `json:"problems"`
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// ClampPageSize maps a requested page size onto the supported range.
func ClampPageSize(n int) int {
	if n <= 0 {
		return defaultPageSize
	}
	return min(n, maxPageSize)
}

func (s *ProblemService) ListProblems(ctx context.Context, f repository.ProblemFilter) (*ProblemPage, error) {
	f.Limit = ClampPageSize(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}

	problems, total, err := s.problemRepo.ListProblems(ctx, f)
	if err != nil {
		return nil, err
	}
	for i := range problems {
		rendered, err := s.renderer.Render(problems[i].Description)
		if err != nil {
			return nil, fmt.Errorf("render description of problem %d: %w", problems[i].Serial, err)
		}
		problems[i].Excerpt = markdown.Excerpt(string(rendered), excerptRunes)
		problems[i].Description = ""
	}
	return &ProblemPage{Problems: problems, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
