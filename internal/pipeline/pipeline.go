package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fachebot/chat-insight/internal/analyzer"
	"github.com/fachebot/chat-insight/internal/chunker"
	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/dispatcher"
	"github.com/fachebot/chat-insight/internal/llm"
	"github.com/fachebot/chat-insight/internal/logger"
	"github.com/fachebot/chat-insight/internal/record"
	"github.com/fachebot/chat-insight/internal/store"
	"github.com/fachebot/chat-insight/internal/summarizer"
)

// topicExtractor 调用 LLM 提取分块话题（便于测试注入 mock）
type topicExtractor interface {
	ExtractTopics(ctx context.Context, systemPrompt, chunkText string) (string, error)
}

// Pipeline 完整的分析流水线：读取、预处理、分块、并行提取、汇总、画像、合并导出。
// llmClient 为 nil 时跳过所有 API 调用，只导出分块文件和统计报告。
type Pipeline struct {
	llmClient  topicExtractor
	summarizer *summarizer.Summarizer
	config     *config.Analysis
}

func NewPipeline(llmClient *llm.Client, cfg *config.Analysis) *Pipeline {
	p := &Pipeline{config: cfg}
	if llmClient != nil {
		p.llmClient = llmClient
		p.summarizer = summarizer.NewSummarizer(llmClient)
	}
	return p
}

// outputDirFor 每个输入文件使用独立的输出子目录 <OutputDir>/<文件名主干>/
func (p *Pipeline) outputDirFor(inputFile string) string {
	base := filepath.Base(inputFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(p.config.OutputDir, stem)
}

// loadPrompt 读取提示词文件，文件缺失时返回空提示词并记录警告
func loadPrompt(promptFile string) string {
	data, err := os.ReadFile(promptFile)
	if err != nil {
		logger.Warnf("[Pipeline] 提示词文件 '%s' 不存在，将使用空提示词", promptFile)
		return ""
	}
	return string(data)
}

// Run 对单个输入文件执行完整分析。
// 输入文件错误视为致命错误并返回；分块 API 失败、汇总失败、
// 报告写入失败只记录日志，不中止其余步骤。
func (p *Pipeline) Run(ctx context.Context, inputFile string) error {
	logger.Infof("[Pipeline] 正在读取文件: %s", inputFile)
	rawRecords, err := store.Load(ctx, inputFile)
	if err != nil {
		return fmt.Errorf("读取输入文件失败: %w", err)
	}

	// 预处理数据
	processed := record.Preprocess(rawRecords)

	// 创建输出目录
	outputDir := p.outputDirFor(inputFile)
	chunksDir := filepath.Join(outputDir, "chunks")
	if err := os.MkdirAll(chunksDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	// 分割聊天记录并并行处理
	logger.Infof("[Pipeline] 开始按最大字符数量 %d 分割聊天记录...", p.config.MaxChars)
	chunks := chunker.SplitByChars(processed, p.config.MaxChars)
	if err := p.processChunks(ctx, chunks, chunksDir, outputDir); err != nil {
		logger.Errorf("[Pipeline] 分块处理失败: %v", err)
	}

	// 生成汇总报告
	if p.config.Summarize {
		if p.summarizer == nil {
			logger.Warnf("[Pipeline] 未配置 API 密钥，跳过汇总报告")
		} else {
			sumPromptFile := filepath.Join(p.config.PromptsDir, "sum-prompts.txt")
			logger.Infof("[Pipeline] 开始生成汇总报告...")
			if err := p.summarizer.Summarize(ctx, chunksDir, outputDir, sumPromptFile, p.config.TopN); err != nil {
				logger.Errorf("[Pipeline] 汇总报告生成失败: %v", err)
			} else {
				logger.Infof("[Pipeline] 汇总报告生成成功")
			}
		}
	}

	// 分析聊天内容并生成用户画像
	logger.Infof("[Pipeline] 开始分析聊天内容...")
	stats := analyzer.AnalyzeChatContent(processed)
	if err := analyzer.GenerateReport(stats, outputDir); err != nil {
		logger.Errorf("[Pipeline] 生成分析报告失败: %v", err)
	}

	// 合并聊天记录到一个文件
	if err := analyzer.ExportMergedChat(processed, outputDir); err != nil {
		logger.Errorf("[Pipeline] 合并聊天记录失败: %v", err)
	}

	logger.Infof("[Pipeline] 分析完成，结果已保存到 %s 目录", outputDir)
	return nil
}

// processChunks 将分块文本写入文件并提交 worker 池并行调用 API，
// 成功的结果按原始顺序合并写入 merged_results.txt。
func (p *Pipeline) processChunks(ctx context.Context, chunks []chunker.Chunk, chunksDir, outputDir string) error {
	if len(chunks) == 0 {
		logger.Infof("[Pipeline] 无分块需要处理")
		return nil
	}

	// 未配置 API 密钥时只导出分块文件
	if p.llmClient == nil {
		for i, chunk := range chunks {
			if err := writeChunkFile(chunksDir, i, chunk.Text()); err != nil {
				return err
			}
		}
		logger.Infof("[Pipeline] 未提供API密钥，跳过API处理，已保存 %d 个分块文件", len(chunks))
		return nil
	}

	prompt := loadPrompt(filepath.Join(p.config.PromptsDir, "prompts.txt"))

	results, err := dispatcher.Process(ctx, chunks, p.config.MaxWorkers,
		func(ctx context.Context, index int, chunk chunker.Chunk) (string, error) {
			chunkText := chunk.Text()
			if err := writeChunkFile(chunksDir, index, chunkText); err != nil {
				return "", err
			}

			result, err := p.llmClient.ExtractTopics(ctx, prompt, chunkText)
			if err != nil {
				return "", err
			}

			if err := writeResultFile(chunksDir, index, result); err != nil {
				return "", err
			}
			return result, nil
		})
	if err != nil {
		return err
	}

	// 合并成功的结果，保持分块原始顺序
	var succeeded []string
	for _, r := range results {
		if r.OK() {
			succeeded = append(succeeded, r.Content)
		}
	}
	if len(succeeded) == 0 {
		logger.Warnf("[Pipeline] 无任何分块处理成功，跳过结果合并")
		return nil
	}

	merged := "\n\n=== 分块处理结果汇总 ===\n\n" + strings.Join(succeeded, "\n\n---\n\n")
	mergedFile := filepath.Join(outputDir, "merged_results.txt")
	if err := os.WriteFile(mergedFile, []byte(merged), 0644); err != nil {
		return fmt.Errorf("写入合并结果失败: %w", err)
	}
	logger.Infof("[Pipeline] 所有块的处理结果已合并到: %s", mergedFile)
	return nil
}

// 分块文件和结果文件按 1 开始的序号命名
func writeChunkFile(chunksDir string, index int, text string) error {
	filename := filepath.Join(chunksDir, fmt.Sprintf("chunk_%d.txt", index+1))
	if err := os.WriteFile(filename, []byte(text), 0644); err != nil {
		return fmt.Errorf("保存分块文本失败: %w", err)
	}
	return nil
}

func writeResultFile(chunksDir string, index int, result string) error {
	filename := filepath.Join(chunksDir, fmt.Sprintf("result_%d.txt", index+1))
	if err := os.WriteFile(filename, []byte(result), 0644); err != nil {
		return fmt.Errorf("保存处理结果失败: %w", err)
	}
	return nil
}
