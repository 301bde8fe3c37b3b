package usecase_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/auth"
	"github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/domain/types"
	"github.com/secmon-lab/riskreg/pkg/repository/memory"
	"github.com/secmon-lab/riskreg/pkg/service/storage"
	"github.com/secmon-lab/riskreg/pkg/usecase"
)

const pdfBody = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

// fixedNow stays close to the wall clock because stores expire merge selections in real time
var fixedNow = time.Now().UTC()

func riskID(initial string, seq int) model.RiskID {
	return model.NextRiskID(initial, fixedNow.Year(), int(fixedNow.Month()), seq)
}

func testConfig() *config.RegisterConfig {
	cfg := config.DefaultRegisterConfig()
	cfg.Departments = []config.Department{
		{Name: "Asset Management", Initial: "AM"},
		{Name: "Finance", Initial: "FN"},
	}
	cfg.Categories = []config.Category{
		{Name: "Fraud"},
		{Name: "Operational"},
		{Name: "Compliance"},
	}
	return cfg
}

func ownerCtx() context.Context {
	return auth.ContextWithUser(context.Background(), &model.User{
		ID: "U001", Name: "Owner", Department: "Asset Management", Role: types.RoleRiskOwner,
	})
}

func userCtx(id, department string, role types.Role) context.Context {
	return auth.ContextWithUser(context.Background(), &model.User{
		ID: id, Department: department, Role: role,
	})
}

// notifierMock records notified reports
type notifierMock struct {
	mu      sync.Mutex
	reports []*model.RiskReport
}

func (n *notifierMock) NotifyReport(ctx context.Context, report *model.RiskReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
	return nil
}

func (n *notifierMock) Reports() []*model.RiskReport {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reports
}

type fixture struct {
	repo     *memory.Memory
	store    *storage.Local
	dir      string
	notifier *notifierMock
	stages   *stageRecorder
	uc       *usecase.UseCases
}

type stageRecorder struct {
	mu     sync.Mutex
	stages []types.IntakeStage
}

func (r *stageRecorder) hook(ctx context.Context, stage types.IntakeStage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *stageRecorder) Last() types.IntakeStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stages) == 0 {
		return ""
	}
	return r.stages[len(r.stages)-1]
}

func (r *stageRecorder) All() []types.IntakeStage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.IntakeStage(nil), r.stages...)
}

func (r *stageRecorder) Contains(stage types.IntakeStage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.stages, stage)
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, memory.New(), opts...)
}

func newFixtureWithRepo(t *testing.T, repo interfaces.Repository, opts ...usecase.Option) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	gt.NoError(t, err).Required()

	f := &fixture{
		store:    store,
		dir:      dir,
		notifier: &notifierMock{},
		stages:   &stageRecorder{},
	}
	if m, ok := repo.(*memory.Memory); ok {
		f.repo = m
	}

	base := []usecase.Option{
		usecase.WithRegisterConfig(testConfig()),
		usecase.WithStorage(store),
		usecase.WithNotifier(f.notifier),
		usecase.WithClock(func() time.Time { return fixedNow }),
		usecase.WithStageHook(f.stages.hook),
	}
	f.uc = usecase.New(repo, append(base, opts...)...)
	return f
}

// stagedFiles lists what is left in the staging area
func (f *fixture) stagedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.dir, ".staging"))
	gt.NoError(t, err).Required()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func pdfAttachment(name string) usecase.AttachmentInput {
	return usecase.AttachmentInput{
		Name:    name,
		Size:    int64(len(pdfBody)),
		Content: strings.NewReader(pdfBody),
	}
}

func validInput() *usecase.SubmitInput {
	return &usecase.SubmitInput{
		ScoreInput: usecase.ScoreInput{
			Primary: usecase.AssessmentInput{Category: "Fraud", Likelihood: 4, Impact: 4},
		},
		Description: "Vendor invoice paid twice",
		Causes: map[types.CauseTaxonomy][]string{
			types.CauseTaxonomyProcess: {"missing approval step"},
		},
		Attachments: []usecase.AttachmentInput{pdfAttachment("invoice.pdf")},
	}
}

func submit(t *testing.T, f *fixture, ctx context.Context, input *usecase.SubmitInput) *model.RiskReport {
	t.Helper()
	report, err := f.uc.Intake.Submit(ctx, input)
	gt.NoError(t, err).Required()
	return report
}
