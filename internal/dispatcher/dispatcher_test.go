package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fachebot/chat-insight/internal/chunker"
	"github.com/fachebot/chat-insight/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeChunks(n int) []chunker.Chunk {
	chunks := make([]chunker.Chunk, n)
	for i := range chunks {
		content := fmt.Sprintf("消息-%d", i)
		chunks[i] = chunker.Chunk{
			Records:   []record.Record{{Content: content, Type: record.TypeText}},
			CharCount: len(content),
		}
	}
	return chunks
}

func TestProcess_Empty(t *testing.T) {
	results, err := Process(context.Background(), nil, 4, func(ctx context.Context, index int, chunk chunker.Chunk) (string, error) {
		t.Fatal("空输入不应调用处理函数")
		return "", nil
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcess_ResultOrderMatchesChunkOrder(t *testing.T) {
	chunks := makeChunks(20)

	results, err := Process(context.Background(), chunks, 4, func(ctx context.Context, index int, chunk chunker.Chunk) (string, error) {
		// 打乱完成顺序，验证结果数组仍按原始下标对齐
		time.Sleep(time.Duration(20-index) * time.Millisecond)
		return "结果:" + chunk.Text(), nil
	})
	require.NoError(t, err)
	require.Len(t, results, len(chunks))

	for i, r := range results {
		require.True(t, r.OK(), "第 %d 个块不应失败", i+1)
		// 每个结果都来自对应块自己的文本
		assert.Equal(t, "结果:"+chunks[i].Text(), r.Content)
	}
}

func TestProcess_FailureIsolated(t *testing.T) {
	chunks := makeChunks(5)
	wantErr := errors.New("API 调用失败")

	results, err := Process(context.Background(), chunks, 2, func(ctx context.Context, index int, chunk chunker.Chunk) (string, error) {
		if index == 1 || index == 3 {
			return "", wantErr
		}
		return chunk.Text(), nil
	})
	require.NoError(t, err)
	require.Len(t, results, 5)

	// 失败只影响对应槽位，其余分块正常完成
	for i, r := range results {
		if i == 1 || i == 3 {
			assert.False(t, r.OK())
			assert.ErrorIs(t, r.Err, wantErr)
			assert.Empty(t, r.Content)
		} else {
			assert.True(t, r.OK())
			assert.Equal(t, chunks[i].Text(), r.Content)
		}
	}
}

func TestProcess_AllFail(t *testing.T) {
	chunks := makeChunks(3)
	results, err := Process(context.Background(), chunks, 2, func(ctx context.Context, index int, chunk chunker.Chunk) (string, error) {
		return "", errors.New("网络异常")
	})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.False(t, r.OK())
	}
}

func TestProcess_BoundedConcurrency(t *testing.T) {
	const workers = 3
	chunks := makeChunks(12)

	var running, peak int32
	var mu sync.Mutex

	_, err := Process(context.Background(), chunks, workers, func(ctx context.Context, index int, chunk chunker.Chunk) (string, error) {
		cur := atomic.AddInt32(&running, 1)
		mu.Lock()
		if cur > peak {
			peak = cur
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return "", nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(workers), "并发数不应超过 worker 数量")
	assert.Greater(t, peak, int32(0))
}

func TestProcess_WorkerCountClamped(t *testing.T) {
	// worker 数大于分块数或非法时不应报错
	chunks := makeChunks(2)
	for _, workers := range []int{0, -5, 100} {
		results, err := Process(context.Background(), chunks, workers, func(ctx context.Context, index int, chunk chunker.Chunk) (string, error) {
			return chunk.Text(), nil
		})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.True(t, r.OK())
		}
	}
}

func TestChunkResultOK(t *testing.T) {
	assert.True(t, ChunkResult{Content: "ok"}.OK())
	assert.False(t, ChunkResult{Err: errors.New("失败")}.OK())
}
