package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"GridSentinel/internal/factor"
	"GridSentinel/internal/logger"
	"GridSentinel/internal/notifier"
	"GridSentinel/internal/recorder"
	"GridSentinel/internal/service"
)

// Notifier delivers formatted messages.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler evaluates the watchlist on a cron schedule and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Service   *service.StockEvaluationService
	Notifier  Notifier // optional
	Recorder  recorder.Recorder
	Watchlist []string
	Ctx       context.Context

	log *logrus.Entry
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *service.StockEvaluationService, n Notifier, rec recorder.Recorder, watchlist []string) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Service:   svc,
		Notifier:  n,
		Recorder:  rec,
		Watchlist: watchlist,
		Ctx:       ctx,
		log:       logger.Default().WithComponent("scheduler"),
	}
}

// RegisterAll registers the watchlist evaluation task.
func (s *Scheduler) RegisterAll(evaluateCron string) error {
	if _, err := s.Cron.AddFunc(evaluateCron, s.evaluateTask); err != nil {
		return fmt.Errorf("register evaluate task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.WithField("entries", len(s.Cron.Entries())).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow evaluates the watchlist immediately.
func (s *Scheduler) RunNow() {
	s.evaluateTask()
}

func (s *Scheduler) evaluateTask() {
	s.log.WithField("symbols", len(s.Watchlist)).Info("running watchlist evaluation")
	for _, symbol := range s.Watchlist {
		if s.Ctx.Err() != nil {
			return
		}
		report, err := s.evaluate(s.Ctx, symbol)
		if err != nil {
			s.log.WithError(err).WithField("symbol", symbol).Error("evaluate symbol")
			s.trySend(fmt.Sprintf("❌ %s 评估失败: %v", symbol, err))
			continue
		}
		s.trySend(report)
	}
}

// evaluate runs one symbol, records it and returns the formatted report.
func (s *Scheduler) evaluate(ctx context.Context, symbol string) (string, error) {
	run, res, err := s.Service.EvaluateDetailed(ctx, symbol)
	if err != nil {
		return "", err
	}
	if err := s.Recorder.RecordEvaluation(res); err != nil {
		s.log.WithError(err).WithField("symbol", symbol).Error("record evaluation")
	}
	return notifier.FormatEvaluationReport(res, run), nil
}

func (s *Scheduler) factorConfig() *factor.Config {
	if s.Service != nil && s.Service.Config != nil {
		return s.Service.Config
	}
	return factor.Default()
}

const helpText = "可用命令:\n• /evaluate 代码 (评估 代码)\n• /factors (查看因子)\n• /watchlist (查看自选)\n• /history 代码 (评估记录)"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	arg := ""
	if len(fields) > 1 {
		arg = strings.ToUpper(fields[1])
	}

	switch fields[0] {
	case "/evaluate", "评估":
		if arg == "" {
			return "用法: /evaluate 代码"
		}
		report, err := s.evaluate(ctx, arg)
		if err != nil {
			return fmt.Sprintf("❌ %s 评估失败: %v", arg, err)
		}
		return report
	case "/factors", "查看因子":
		return notifier.FormatFactorList(s.factorConfig())
	case "/watchlist", "查看自选":
		if len(s.Watchlist) == 0 {
			return "自选列表为空"
		}
		return "自选列表: " + strings.Join(s.Watchlist, ", ")
	case "/history", "评估记录":
		return s.history(arg)
	default:
		return helpText
	}
}

func (s *Scheduler) history(symbol string) string {
	recs, err := s.Recorder.ListEvaluations(symbol, 5)
	if err != nil {
		return fmt.Sprintf("❌ 查询失败: %v", err)
	}
	if len(recs) == 0 {
		return "暂无评估记录"
	}
	var b strings.Builder
	b.WriteString("🗂 <b>最近评估</b>\n\n")
	for _, r := range recs {
		mark := "❌"
		if r.IsSupported {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s %s 通过 %d/%d\n", mark, r.Timestamp.Format("2006-01-02 15:04"), r.Symbol, r.Passed, r.Total))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		s.log.Debug("no notifier configured, skipping message")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
