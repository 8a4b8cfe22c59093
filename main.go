package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/pipeline"
	"github.com/fachebot/chat-insight/internal/scheduler"
	"github.com/fachebot/chat-insight/internal/svc"
)

var (
	configFile = flag.String("f", "etc/config.yaml", "the config file")
	inputFile  = flag.String("i", "", "输入的聊天记录文件路径 (.csv 或 .db)")
	maxChars   = flag.Int("m", 50000, "分割聊天记录的最大字符数量")
	summarize  = flag.Bool("S", false, "是否生成汇总报告")
	topN       = flag.Int("t", 0, "选取的话题数量，默认为全部话题")
)

func main() {
	flag.Parse()

	// 读取配置文件
	c, err := config.LoadFromFile(*configFile)
	if err != nil {
		logger.Fatalf("读取配置文件失败, %s", err)
	}

	// 命令行参数覆盖配置文件
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m":
			c.Analysis.MaxChars = *maxChars
		case "S":
			c.Analysis.Summarize = *summarize
		case "t":
			c.Analysis.TopN = *topN
		}
	})

	if *inputFile == "" {
		logger.Fatalf("请通过 -i 指定输入文件")
	}
	if _, err := os.Stat(*inputFile); err != nil {
		logger.Fatalf("输入文件 '%s' 不存在", *inputFile)
	}

	// 创建输出目录
	if err := os.MkdirAll(c.Analysis.OutputDir, 0755); err != nil {
		logger.Fatalf("创建输出目录失败, %s", err)
	}

	// 创建服务上下文和流水线
	svcCtx := svc.NewServiceContext(c)
	p := pipeline.NewPipeline(svcCtx.LLMClient, &c.Analysis)

	// 未配置定时任务时执行一次分析后退出
	if c.Schedule.Cron == "" {
		if err := p.Run(context.Background(), *inputFile); err != nil {
			logger.Fatalf("分析失败, %s", err)
		}
		return
	}

	// 定时模式：先执行一次，再按 cron 表达式定期重新分析
	if err := p.Run(context.Background(), *inputFile); err != nil {
		logger.Errorf("分析失败, %s", err)
	}

	schedulerInstance := scheduler.NewScheduler(p, *inputFile, c.Schedule.Cron)
	if err := schedulerInstance.Start(); err != nil {
		logger.Fatalf("[Scheduler] 启动调度器失败: %s", err)
	}

	// 等待程序退出
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	// 优雅关闭
	logger.Infof("正在关闭服务...")
	schedulerInstance.Stop()
	logger.Infof("服务已停止")
}
