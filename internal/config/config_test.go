package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeTempConfig(t, `
LLM:
  BaseURL: https://api.deepseek.com
  APIKey: sk-test
  Model: deepseek-chat
  MaxTokens: 8000
Analysis:
  OutputDir: out
  PromptsDir: my-prompts
  MaxChars: 30000
  MaxWorkers: 5
  TopN: 20
  Summarize: true
Schedule:
  Cron: "0 3 * * *"
`)
	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", c.LLM.Model)
	assert.Equal(t, "out", c.Analysis.OutputDir)
	assert.Equal(t, 30000, c.Analysis.MaxChars)
	assert.Equal(t, 5, c.Analysis.MaxWorkers)
	assert.Equal(t, 20, c.Analysis.TopN)
	assert.True(t, c.Analysis.Summarize)
	assert.Equal(t, "0 3 * * *", c.Schedule.Cron)
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeTempConfig(t, "LLM:\n  APIKey: \"\"\n")
	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "output", c.Analysis.OutputDir)
	assert.Equal(t, "prompts", c.Analysis.PromptsDir)
	assert.Equal(t, 50000, c.Analysis.MaxChars)
	assert.Equal(t, 10, c.Analysis.MaxWorkers)
	assert.Equal(t, 8000, c.LLM.MaxTokens)
}

func TestLoadFromFile_NotExist(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "APIKey为空时不要求LLM配置",
			mutate: func(c *Config) { c.LLM = LLM{} },
		},
		{
			name:    "有APIKey时BaseURL必填",
			mutate:  func(c *Config) { c.LLM.BaseURL = "" },
			wantErr: "LLM.BaseURL",
		},
		{
			name:    "有APIKey时Model必填",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: "LLM.Model",
		},
		{
			name:    "MaxWorkers必须为正",
			mutate:  func(c *Config) { c.Analysis.MaxWorkers = 0 },
			wantErr: "Analysis.MaxWorkers",
		},
		{
			name:    "启用代理时Host必填",
			mutate:  func(c *Config) { c.Sock5Proxy = Sock5Proxy{Enable: true, Port: 1080} },
			wantErr: "Sock5Proxy.Host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				LLM: LLM{
					BaseURL:   "https://api.deepseek.com",
					APIKey:    "sk-test",
					Model:     "deepseek-chat",
					MaxTokens: 8000,
				},
				Analysis: Analysis{
					OutputDir:  "output",
					MaxWorkers: 10,
				},
			}
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
