package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"marketplace-recon-api/internal/dto"
	"marketplace-recon-api/internal/utils/timeutil"
)

// AutoLinker 由 linker.Service 实现
type AutoLinker interface {
	AutoLink(ctx context.Context, marketplace *string, daysBack int) (dto.AutoLinkSummary, error)
}

// RuleReloader 由 rules.Service 实现
type RuleReloader interface {
	Reload(ctx context.Context) error
}

type Specs struct {
	AutoLink    string
	RulesReload string
}

// Scheduler 定时任务；同一任务上次未结束时跳过本次
type Scheduler struct {
	cron     *cron.Cron
	linker   AutoLinker
	rules    RuleReloader
	specs    Specs
	daysBack int
	timeout  time.Duration
	log      *logrus.Logger
}

func New(linker AutoLinker, rules RuleReloader, specs Specs, daysBack int, log *logrus.Logger) *Scheduler {
	cronLogger := cron.PrintfLogger(log)
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(timeutil.Location()),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return &Scheduler{
		cron:     c,
		linker:   linker,
		rules:    rules,
		specs:    specs,
		daysBack: daysBack,
		timeout:  20 * time.Minute,
		log:      log,
	}
}

// Start 注册任务并启动；cron 表达式错误时返回
func (s *Scheduler) Start() error {
	if s.linker != nil && s.specs.AutoLink != "" {
		if _, err := s.cron.AddFunc(s.specs.AutoLink, s.runAutoLink); err != nil {
			s.log.WithError(err).WithField("spec", s.specs.AutoLink).Error("[CRON] 自动关联任务注册失败")
			return err
		}
		s.log.WithField("spec", s.specs.AutoLink).Info("[CRON] 自动关联任务已注册")
	}
	if s.rules != nil && s.specs.RulesReload != "" {
		if _, err := s.cron.AddFunc(s.specs.RulesReload, s.runRulesReload); err != nil {
			s.log.WithError(err).WithField("spec", s.specs.RulesReload).Error("[CRON] 规则刷新任务注册失败")
			return err
		}
	}
	s.cron.Start()
	return nil
}

// Stop 返回的 ctx 在运行中的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runAutoLink() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	sum, err := s.linker.AutoLink(ctx, nil, s.daysBack)
	if err != nil {
		s.log.WithError(err).Error("[CRON] 自动关联失败")
		return
	}
	s.log.WithFields(logrus.Fields{
		"processed": sum.TotalProcessed,
		"linked":    sum.TotalLinked,
		"ambiguous": sum.TotalAmbiguous,
		"errors":    len(sum.Errors),
	}).Info("[CRON] 自动关联完成")
}

func (s *Scheduler) runRulesReload() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.rules.Reload(ctx); err != nil {
		s.log.WithError(err).Warn("[CRON] 规则刷新失败，继续使用当前规则集")
	}
}
