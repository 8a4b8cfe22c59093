package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/pipeline"
	"github.com/robfig/cron/v3"
)

// Scheduler 按 cron 表达式定期对输入文件重新执行分析，
// 用于持续刷新的聊天记录导出文件。
type Scheduler struct {
	cron      *cron.Cron
	pipeline  *pipeline.Pipeline
	inputFile string
	spec      string
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
}

func NewScheduler(p *pipeline.Pipeline, inputFile, spec string) *Scheduler {
	return &Scheduler{
		// 上一轮分析未结束时跳过本轮，避免并发写同一输出目录
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		pipeline:  p,
		inputFile: inputFile,
		spec:      spec,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	_, err := s.cron.AddFunc(s.spec, s.runAnalysis)
	if err != nil {
		return fmt.Errorf("注册定时分析任务失败: %w", err)
	}

	s.cron.Start()
	logger.Infof("[Scheduler] 调度器已启动，定时分析任务: %s", s.spec)
	return nil
}

// Stop 停止调度器，等待进行中的任务结束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] 调度器已停止")
}

// runAnalysis 执行一轮完整分析（cron 触发）
func (s *Scheduler) runAnalysis() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		logger.Infof("[Scheduler] 任务已取消，退出")
		return
	default:
	}

	logger.Infof("[Scheduler] 开始执行定时分析任务")
	if err := s.pipeline.Run(ctx, s.inputFile); err != nil {
		logger.Errorf("[Scheduler] 定时分析任务失败: %v", err)
		return
	}
	logger.Infof("[Scheduler] 定时分析任务完成")
}
