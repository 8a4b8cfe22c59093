package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/fachebot/chat-insight/internal/chunker"
	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/panjf2000/ants/v2"
)

// TransformFunc 对单个分块执行的处理函数，index 从 0 开始。
// 返回的文本通常为 LLM 提取的话题 JSON。
type TransformFunc func(ctx context.Context, index int, chunk chunker.Chunk) (string, error)

// ChunkResult 单个分块的处理结果。Err 不为 nil 时 Content 无效。
type ChunkResult struct {
	Content string
	Err     error
}

// OK 报告该分块是否处理成功
func (r ChunkResult) OK() bool {
	return r.Err == nil
}

// Process 将 N 个分块提交到固定大小的 worker 池并行处理，
// 返回与分块一一对应的 N 长结果数组：results[i] 对应 chunks[i]。
// 每个 worker 只写入自己的下标槽位，单个分块失败不会中止其它分块，
// 失败记录在对应槽位的 Err 中；不做重试。
func Process(ctx context.Context, chunks []chunker.Chunk, workers int, fn TransformFunc) ([]ChunkResult, error) {
	results := make([]ChunkResult, len(chunks))
	if len(chunks) == 0 {
		return results, nil
	}

	if workers <= 0 {
		workers = 1
	}
	if workers > len(chunks) {
		workers = len(chunks)
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		logger.Errorf("[Dispatcher] worker panic: %v", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("创建 worker 池失败: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range chunks {
		i := i
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			logger.Infof("[Dispatcher] 处理第 %d/%d 个块...", i+1, len(chunks))
			content, err := fn(ctx, i, chunks[i])
			if err != nil {
				logger.Errorf("[Dispatcher] 第 %d 个块处理失败: %v", i+1, err)
				results[i] = ChunkResult{Err: err}
				return
			}
			results[i] = ChunkResult{Content: content}
		})
		if submitErr != nil {
			wg.Done()
			results[i] = ChunkResult{Err: fmt.Errorf("提交任务失败: %w", submitErr)}
		}
	}

	// 同步等待全部任务完成后统一返回有序结果
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}
	logger.Infof("[Dispatcher] 分块处理完成: 成功 %d 个，失败 %d 个", succeeded, len(chunks)-succeeded)
	return results, nil
}
