package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fachebot/chat-insight/internal/llm"
	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/tidwall/gjson"
)

// Topic 单个话题，保留 LLM 返回的全部字段。
// 排序只依赖其中的 message_count 字段，缺失时按 0 处理。
type Topic = json.RawMessage

// chunkResultJSON 单个分块结果的外层结构
type chunkResultJSON struct {
	Topics []Topic `json:"topics"`
}

// reportGenerator 调用 LLM 生成最终报告（便于测试注入 mock）
type reportGenerator interface {
	GenerateReport(ctx context.Context, systemPrompt, topicsJSON string) (string, error)
}

type Summarizer struct {
	llmClient reportGenerator
}

func NewSummarizer(llmClient *llm.Client) *Summarizer {
	return &Summarizer{llmClient: llmClient}
}

// ReadResultFiles 读取 chunksDir 下所有 result_{i}.txt 文件的内容，
// 按分块序号排序返回。单个文件读取失败只记录警告，不中止。
func ReadResultFiles(chunksDir string) ([]string, error) {
	entries, err := os.ReadDir(chunksDir)
	if err != nil {
		return nil, fmt.Errorf("读取结果目录失败: %w", err)
	}

	type resultFile struct {
		index int
		name  string
	}
	var files []resultFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "result_") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		// 按文件名中的分块序号排序，避免字典序把 result_10 排在 result_2 之前
		indexStr := strings.TrimSuffix(strings.TrimPrefix(name, "result_"), ".txt")
		index, err := strconv.Atoi(indexStr)
		if err != nil {
			logger.Warnf("[Summarizer] 忽略无法识别的结果文件: %s", name)
			continue
		}
		files = append(files, resultFile{index: index, name: name})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	contents := make([]string, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(chunksDir, f.name))
		if err != nil {
			logger.Warnf("[Summarizer] 读取文件 %s 时出错: %v", f.name, err)
			continue
		}
		contents = append(contents, string(data))
	}
	return contents, nil
}

// CollectTopics 从多个分块结果文本中解析并收集所有话题。
// 单个结果 JSON 解析失败时记录警告并跳过该结果，不中止处理。
func CollectTopics(results []string) []Topic {
	var allTopics []Topic
	for i, raw := range results {
		content := llm.StripCodeFence(raw)
		if content == "" {
			continue
		}

		var parsed chunkResultJSON
		if err := json.Unmarshal([]byte(content), &parsed); err != nil {
			logger.Warnf("[Summarizer] 解析第 %d 个结果的 JSON 失败: %v", i+1, err)
			continue
		}
		allTopics = append(allTopics, parsed.Topics...)
	}
	return allTopics
}

// messageCount 提取话题中的 message_count 字段，缺失或非数字时返回 0
func messageCount(topic Topic) int64 {
	return gjson.GetBytes(topic, "message_count").Int()
}

// MergeTopics 按 message_count 降序稳定排序所有话题，
// 相同计数的话题保持输入顺序；topN > 0 时只保留前 topN 个。
func MergeTopics(topics []Topic, topN int) []Topic {
	sorted := make([]Topic, len(topics))
	copy(sorted, topics)

	sort.SliceStable(sorted, func(i, j int) bool {
		return messageCount(sorted[i]) > messageCount(sorted[j])
	})

	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}

// Summarize 汇总分块处理结果并生成最终报告：
// 读取 chunksDir 下的结果文件，合并排序话题，调用 LLM 生成叙述报告，
// 写入 <outputDir>/final_report.txt。
func (s *Summarizer) Summarize(ctx context.Context, chunksDir, outputDir, promptFile string, topN int) error {
	results, err := ReadResultFiles(chunksDir)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return fmt.Errorf("未找到任何结果文件")
	}

	topics := CollectTopics(results)
	if len(topics) == 0 {
		return fmt.Errorf("未找到任何有效话题")
	}
	sortedTopics := MergeTopics(topics, topN)
	logger.Infof("[Summarizer] 合并得到 %d 个话题", len(sortedTopics))

	prompt, err := os.ReadFile(promptFile)
	if err != nil {
		return fmt.Errorf("读取提示词文件失败: %w", err)
	}

	topicsJSON, err := json.MarshalIndent(sortedTopics, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化话题列表失败: %w", err)
	}

	report, err := s.llmClient.GenerateReport(ctx, string(prompt), string(topicsJSON))
	if err != nil {
		return fmt.Errorf("生成报告失败: %w", err)
	}

	reportFile := filepath.Join(outputDir, "final_report.txt")
	if err := os.WriteFile(reportFile, []byte(report), 0644); err != nil {
		return fmt.Errorf("保存报告失败: %w", err)
	}

	logger.Infof("[Summarizer] 报告已保存到: %s", reportFile)
	return nil
}
