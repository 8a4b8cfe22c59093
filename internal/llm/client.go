package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fachebot/chat-insight/internal/config"
	"github.com/sashabaranov/go-openai"
)

// requestTimeout 单次请求超时时间
const requestTimeout = 5 * time.Minute

// openAIClientInterface 定义 OpenAI 客户端接口，便于测试
type openAIClientInterface interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	config       *config.LLM
	openaiClient openAIClientInterface
}

// NewClient 创建 LLM 客户端。transport 不为 nil 时用于 API 请求（如 SOCKS5 代理）。
func NewClient(cfg *config.LLM, transport *http.Transport) *Client {
	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	if transport != nil {
		openaiConfig.HTTPClient = &http.Client{Transport: transport}
	}

	return &Client{
		config:       cfg,
		openaiClient: openai.NewClientWithConfig(openaiConfig),
	}
}

// ExtractTopics 将一个分块的聊天文本交给 LLM 做话题提取。
// systemPrompt 来自外部提示词文件，响应按不透明文本返回（通常为 JSON）。
func (c *Client) ExtractTopics(ctx context.Context, systemPrompt, chunkText string) (string, error) {
	return c.complete(ctx, systemPrompt, chunkText)
}

// GenerateReport 将合并排序后的话题 JSON 交给 LLM 生成最终叙述报告
func (c *Client) GenerateReport(ctx context.Context, systemPrompt, topicsJSON string) (string, error) {
	return c.complete(ctx, systemPrompt, topicsJSON)
}

// complete 执行一次对话补全请求，返回清理后的文本内容
func (c *Client) complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userContent},
		},
		Temperature: 0.7,
		MaxTokens:   c.config.MaxTokens,
	}

	resp, err := c.openaiClient.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("调用 LLM API 失败: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM API 返回空结果")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("LLM API 返回空内容")
	}
	return StripCodeFence(content), nil
}

// StripCodeFence 移除响应中可能的 Markdown 代码块标记
func StripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
