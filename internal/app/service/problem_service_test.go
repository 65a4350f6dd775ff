package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"tle_zone_studio/internal/common"
	"tle_zone_studio/internal/domain/model"
	"tle_zone_studio/internal/domain/repository"
	"tle_zone_studio/internal/platform/config"

	"github.com/jmoiron/sqlx"
)

type fakeProblemRepo struct {
	problems      map[int64]*model.Problem
	slugs         map[string]bool
	starter       map[string]map[string]string
	testcases     map[string][]model.Testcase
	nextSerial    int64
	failTestcases bool
	finds         int
	lastFilter    repository.ProblemFilter
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{
		problems:  map[int64]*model.Problem{},
		slugs:     map[string]bool{},
		starter:   map[string]map[string]string{},
		testcases: map[string][]model.Testcase{},
	}
}

func (r *fakeProblemRepo) CreateProblem(ctx context.Context, tx *sqlx.Tx, p *model.Problem) error {
	if r.slugs[p.Slug] {
		return fmt.Errorf("problem with this name already exists: %w", common.ErrConflict)
	}
	r.nextSerial++
	p.Serial = r.nextSerial
	r.slugs[p.Slug] = true
	stored := *p
	r.problems[p.Serial] = &stored
	return nil
}

func (r *fakeProblemRepo) FindProblemBySerial(ctx context.Context, serial int64) (*model.Problem, error) {
	r.finds++
	p, ok := r.problems[serial]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	cp.StarterCode, cp.SampleTestcases, cp.HiddenTestcases = nil, nil, nil
	return &cp, nil
}

func (r *fakeProblemRepo) ListProblems(ctx context.Context, f repository.ProblemFilter) ([]model.Problem, int, error) {
	r.lastFilter = f
	var out []model.Problem
	for serial := int64(1); serial <= r.nextSerial; serial++ {
		if p, ok := r.problems[serial]; ok {
			out = append(out, *p)
		}
	}
	return out, len(out), nil
}

func (r *fakeProblemRepo) AddStarterCode(ctx context.Context, tx *sqlx.Tx, problemID string, code map[string]string) error {
	r.starter[problemID] = code
	return nil
}

func (r *fakeProblemRepo) GetStarterCode(ctx context.Context, problemID string) (map[string]string, error) {
	return r.starter[problemID], nil
}

func (r *fakeProblemRepo) AddTestcases(ctx context.Context, tx *sqlx.Tx, problemID string, kind model.TestcaseKind, tcs []model.Testcase) error {
	if r.failTestcases {
		return errors.New("insert failed")
	}
	for i, tc := range tcs {
		tc.Kind = kind
		tc.SortOrder = i + 1
		r.testcases[problemID] = append(r.testcases[problemID], tc)
	}
	return nil
}

func (r *fakeProblemRepo) GetTestcases(ctx context.Context, problemID string, kind model.TestcaseKind) ([]model.Testcase, error) {
	var out []model.Testcase
	for _, tc := range r.testcases[problemID] {
		if tc.Kind == kind {
			out = append(out, tc)
		}
	}
	return out, nil
}

type fakeTransactor struct {
	commits   int
	rollbacks int
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := fn(nil); err != nil {
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

type fakeCache struct {
	entries map[int64]*model.Problem
	sets    int
}

func (c *fakeCache) Get(ctx context.Context, serial int64) (*model.Problem, error) {
	return c.entries[serial], nil
}

func (c *fakeCache) Set(ctx context.Context, p *model.Problem) error {
	c.sets++
	c.entries[p.Serial] = p.Public()
	return nil
}

func newTestService() (*ProblemService, *fakeProblemRepo, *fakeTransactor, *fakeCache) {
	repo := newFakeProblemRepo()
	tx := &fakeTransactor{}
	cache := &fakeCache{entries: map[int64]*model.Problem{}}
	cfg := &config.Config{
		ProblemLevels:     []string{"Easy", "Medium", "Hard"},
		ProblemCategories: []string{"1.Array", "2.String"},
	}
	return NewProblemService(repo, tx, cache, cfg), repo, tx, cache
}

func validDraft() model.ProblemDraft {
	return model.ProblemDraft{
		Level:           "Easy",
		Category:        "1.Array",
		Name:            "Two Sum",
		Description:     "Find **two** numbers.",
		StarterCode:     map[string]string{"python": "def main():\n    pass"},
		SampleTestcases: []model.Testcase{{Input: "1 2", Output: "3"}},
		HiddenTestcases: []model.Testcase{{Input: "5 5", Output: "10"}, {Input: "0 0", Output: "0"}},
	}
}

func TestCreateProblem(t *testing.T) {
	svc, repo, tx, cache := newTestService()

	p, err := svc.CreateProblem(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	if p.Serial != 1 || p.Slug != "two-sum" {
		t.Errorf("serial/slug = %d/%q", p.Serial, p.Slug)
	}
	if tx.commits != 1 {
		t.Errorf("commits = %d, want 1", tx.commits)
	}
	if got := len(repo.testcases[p.ID]); got != 3 {
		t.Errorf("stored testcases = %d, want 3", got)
	}
	for _, tc := range repo.testcases[p.ID] {
		if tc.ID == "" {
			t.Error("testcase stored without id")
		}
	}
	if cache.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cache.sets)
	}
	if cached := cache.entries[p.Serial]; cached == nil || cached.HiddenTestcases != nil {
		t.Error("cache should hold the public record")
	}
}

func TestCreateProblemValidation(t *testing.T) {
	svc, _, tx, _ := newTestService()

	cases := map[string]func(d *model.ProblemDraft){
		"missing name":        func(d *model.ProblemDraft) { d.Name = "  " },
		"missing description": func(d *model.ProblemDraft) { d.Description = "" },
		"missing category":    func(d *model.ProblemDraft) { d.Category = "" },
		"unknown level":       func(d *model.ProblemDraft) { d.Level = "Impossible" },
		"unknown category":    func(d *model.ProblemDraft) { d.Category = "9.Quantum" },
		"unsluggable name":    func(d *model.ProblemDraft) { d.Name = "!!!" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := validDraft()
			mutate(&d)
			_, err := svc.CreateProblem(context.Background(), d)
			if !errors.Is(err, common.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
	if tx.commits+tx.rollbacks != 0 {
		t.Error("invalid drafts must not open a transaction")
	}
}

func TestCreateProblemDuplicateName(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.CreateProblem(context.Background(), validDraft()); err != nil {
		t.Fatal(err)
	}
	d := validDraft()
	d.Name = "two sum"
	_, err := svc.CreateProblem(context.Background(), d)
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if !strings.Contains(err.Error(), "problem with this name already exists") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCreateProblemRollsBack(t *testing.T) {
	svc, repo, tx, cache := newTestService()
	repo.failTestcases = true

	if _, err := svc.CreateProblem(context.Background(), validDraft()); err == nil {
		t.Fatal("expected error")
	}
	if tx.rollbacks != 1 || tx.commits != 0 {
		t.Errorf("commits/rollbacks = %d/%d", tx.commits, tx.rollbacks)
	}
	if cache.sets != 0 {
		t.Error("failed create must not touch the cache")
	}
}

func TestGetProblemUsesCache(t *testing.T) {
	svc, repo, _, cache := newTestService()
	created, err := svc.CreateProblem(context.Background(), validDraft())
	if err != nil {
		t.Fatal(err)
	}

	p, err := svc.GetProblem(context.Background(), created.Serial)
	if err != nil {
		t.Fatal(err)
	}
	if repo.finds != 0 {
		t.Errorf("repository hit on warm cache: %d finds", repo.finds)
	}
	if p.HiddenTestcases != nil {
		t.Error("hidden testcases leaked")
	}

	delete(cache.entries, created.Serial)
	p, err = svc.GetProblem(context.Background(), created.Serial)
	if err != nil {
		t.Fatal(err)
	}
	if repo.finds != 1 {
		t.Errorf("finds = %d, want 1", repo.finds)
	}
	if len(p.SampleTestcases) != 1 || p.StarterCode["python"] == "" {
		t.Errorf("incomplete record: %+v", p)
	}
	if p.HiddenTestcases != nil {
		t.Error("hidden testcases leaked")
	}
	if cache.entries[created.Serial] == nil {
		t.Error("cache not refilled")
	}
}

func TestGetProblemNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.GetProblem(context.Background(), 42); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListProblemsExcerptsAndPaging(t *testing.T) {
	svc, repo, _, _ := newTestService()
	if _, err := svc.CreateProblem(context.Background(), validDraft()); err != nil {
		t.Fatal(err)
	}

	page, err := svc.ListProblems(context.Background(), repository.ProblemFilter{Limit: 1000, Offset: -3})
	if err != nil {
		t.Fatal(err)
	}
	if repo.lastFilter.Limit != maxPageSize || repo.lastFilter.Offset != 0 {
		t.Errorf("filter = %+v", repo.lastFilter)
	}
	if page.Total != 1 || len(page.Problems) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if got := page.Problems[0].Excerpt; got != "Find two numbers." {
		t.Errorf("excerpt = %q", got)
	}
}

func TestMeta(t *testing.T) {
	svc, _, _, _ := newTestService()
	meta := svc.Meta()
	if len(meta.Levels) != 3 || len(meta.Languages) == 0 {
		t.Fatalf("meta = %+v", meta)
	}
	if meta.Categories[1] != (model.CategoryOption{Value: "2.String", Label: "String"}) {
		t.Errorf("category = %+v", meta.Categories[1])
	}
}

func TestClampPageSize(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, defaultPageSize},
		{-4, defaultPageSize},
		{7, 7},
		{maxPageSize, maxPageSize},
		{1000, maxPageSize},
	}
	for _, c := range cases {
		if got := ClampPageSize(c.in); got != c.want {
			t.Errorf("ClampPageSize(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
