package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Sock5Proxy struct {
	Host   string `yaml:"Host"`
	Port   int32  `yaml:"Port"`
	Enable bool   `yaml:"Enable"`
}

type LLM struct {
	BaseURL   string `yaml:"BaseURL"` // 兼容 OpenAI API 的端点，如 https://api.deepseek.com
	APIKey    string `yaml:"APIKey"`  // 留空时跳过 API 调用，仅导出分块文件
	Model     string `yaml:"Model"`   // 如 deepseek-chat, gpt-4o, qwen-plus
	MaxTokens int    `yaml:"MaxTokens"`
}

type Analysis struct {
	OutputDir  string `yaml:"OutputDir"`  // 输出根目录，实际输出在 <OutputDir>/<输入文件名>/ 下
	PromptsDir string `yaml:"PromptsDir"` // 提示词目录，包含 prompts.txt 和 sum-prompts.txt
	MaxChars   int    `yaml:"MaxChars"`   // 分块最大字符数，<=0 表示不分块
	MaxWorkers int    `yaml:"MaxWorkers"` // 并发处理分块的 worker 数量
	TopN       int    `yaml:"TopN"`       // 汇总报告选取的话题数量，<=0 表示全部
	Summarize  bool   `yaml:"Summarize"`  // 是否生成最终汇总报告
}

type Schedule struct {
	Cron string `yaml:"Cron"` // cron 表达式，留空时仅执行一次
}

type Config struct {
	Sock5Proxy Sock5Proxy `yaml:"Sock5Proxy"`
	LLM        LLM        `yaml:"LLM"`
	Analysis   Analysis   `yaml:"Analysis"`
	Schedule   Schedule   `yaml:"Schedule"`
}

func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var c Config
	err = yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, err
	}

	c.applyDefaults()

	// 验证配置
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.Analysis.OutputDir == "" {
		c.Analysis.OutputDir = "output"
	}
	if c.Analysis.PromptsDir == "" {
		c.Analysis.PromptsDir = "prompts"
	}
	if c.Analysis.MaxChars == 0 {
		c.Analysis.MaxChars = 50000
	}
	if c.Analysis.MaxWorkers <= 0 {
		c.Analysis.MaxWorkers = 10
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = 8000
	}
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	// 验证 LLM。APIKey 允许为空，为空时仅导出分块不调用 API
	if c.LLM.APIKey != "" {
		if c.LLM.BaseURL == "" {
			return fmt.Errorf("LLM.BaseURL 不能为空")
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("LLM.Model 不能为空")
		}
		if c.LLM.MaxTokens <= 0 {
			return fmt.Errorf("LLM.MaxTokens 必须大于 0")
		}
	}

	// 验证 Analysis
	if c.Analysis.OutputDir == "" {
		return fmt.Errorf("Analysis.OutputDir 不能为空")
	}
	if c.Analysis.MaxWorkers <= 0 {
		return fmt.Errorf("Analysis.MaxWorkers 必须大于 0")
	}

	// 验证 Sock5Proxy
	if c.Sock5Proxy.Enable {
		if c.Sock5Proxy.Host == "" {
			return fmt.Errorf("Sock5Proxy.Host 不能为空")
		}
		if c.Sock5Proxy.Port <= 0 {
			return fmt.Errorf("Sock5Proxy.Port 必须大于 0")
		}
	}

	return nil
}
