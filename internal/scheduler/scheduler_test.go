package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	return pipeline.NewPipeline(nil, &config.Analysis{
		OutputDir:  t.TempDir(),
		PromptsDir: t.TempDir(),
		MaxChars:   50000,
		MaxWorkers: 2,
	})
}

func TestScheduler_InvalidCronSpec(t *testing.T) {
	s := NewScheduler(testPipeline(t), "chat.csv", "这不是 cron 表达式")
	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "注册定时分析任务失败")
}

func TestScheduler_StartStop(t *testing.T) {
	// 一个不会在测试期间触发的表达式
	s := NewScheduler(testPipeline(t), "chat.csv", "0 0 1 1 *")
	require.NoError(t, s.Start())
	s.Stop()
}

func TestScheduler_RunsAnalysis(t *testing.T) {
	inputFile := filepath.Join(t.TempDir(), "chat.csv")
	content := "Type,StrContent,Sender,StrTime\n1,你好,user_a,2023-05-01 12:00:00\n"
	require.NoError(t, os.WriteFile(inputFile, []byte(content), 0644))

	outputDir := t.TempDir()
	p := pipeline.NewPipeline(nil, &config.Analysis{
		OutputDir:  outputDir,
		PromptsDir: t.TempDir(),
		MaxChars:   50000,
		MaxWorkers: 2,
	})

	s := NewScheduler(p, inputFile, "@every 100ms")
	require.NoError(t, s.Start())
	defer s.Stop()

	// 等待至少一轮分析完成
	summaryFile := filepath.Join(outputDir, "chat", "summary.json")
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(summaryFile); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("定时任务未在预期时间内完成分析")
}
