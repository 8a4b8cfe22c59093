package svc

import (
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/fachebot/chat-insight/internal/config"
	"github.com/fachebot/chat-insight/internal/llm"
	"github.com/fachebot/chat-insight/internal/logger"

	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config         *config.Config
	TransportProxy *http.Transport
	LLMClient      *llm.Client
}

// NewServiceContext 构建服务上下文。LLM 客户端只构造一次，由各组件显式注入使用。
func NewServiceContext(c *config.Config) *ServiceContext {
	// 创建SOCKS5代理
	var transportProxy *http.Transport
	if c.Sock5Proxy.Enable {
		socks5Proxy := fmt.Sprintf("%s:%d", c.Sock5Proxy.Host, c.Sock5Proxy.Port)
		dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
		if err != nil {
			logger.Fatalf("创建SOCKS5代理失败, %v", err)
		}

		transportProxy = &http.Transport{
			Dial:            dialer.Dial,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	var llmClient *llm.Client
	if c.LLM.APIKey != "" {
		llmClient = llm.NewClient(&c.LLM, transportProxy)
	}

	return &ServiceContext{
		Config:         c,
		TransportProxy: transportProxy,
		LLMClient:      llmClient,
	}
}
