package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/domain/model/config"
	"github.com/secmon-lab/riskreg/pkg/utils/async"
)

type UseCases struct {
	repo       interfaces.Repository
	config     *config.RegisterConfig
	storage    interfaces.AttachmentStorage
	notifier   interfaces.Notifier
	scorer     *model.Scorer
	clock      func() time.Time
	dispatcher *async.Dispatcher
	stageHook  StageHook

	Intake *IntakeUseCase
	Match  *MatchUseCase
	Merge  *MergeUseCase
	Report *ReportUseCase
	Auth   AuthUseCaseInterface
}

type Option func(*UseCases)

func WithRegisterConfig(cfg *config.RegisterConfig) Option {
	return func(uc *UseCases) {
		uc.config = cfg
	}
}

func WithStorage(storage interfaces.AttachmentStorage) Option {
	return func(uc *UseCases) {
		uc.storage = storage
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithScorer(scorer *model.Scorer) Option {
	return func(uc *UseCases) {
		uc.scorer = scorer
	}
}

func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func WithStageHook(hook StageHook) Option {
	return func(uc *UseCases) {
		uc.stageHook = hook
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		config:     config.DefaultRegisterConfig(),
		scorer:     model.NewScorer(),
		clock:      time.Now,
		dispatcher: async.NewDispatcher(),
	}

	for _, opt := range opts {
		opt(uc)
	}
	if uc.config == nil {
		uc.config = config.DefaultRegisterConfig()
	}

	uc.Intake = newIntakeUseCase(uc)
	uc.Match = newMatchUseCase(uc)
	uc.Merge = newMergeUseCase(uc)
	uc.Report = newReportUseCase(uc)

	return uc
}

// Config returns the register configuration in effect
func (uc *UseCases) Config() *config.RegisterConfig {
	return uc.config
}

// Wait blocks until background notifications finished or ctx is done
func (uc *UseCases) Wait(ctx context.Context) error {
	return uc.dispatcher.Wait(ctx)
}
