package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ExpoConfig Expo推送服务配置
type ExpoConfig struct {
	// 接口地址，空值使用官方端点
	Endpoint string `env:"EXPO_PUSH_ENDPOINT"`

	// 访问令牌，启用了增强安全的项目需要
	AccessToken string `env:"EXPO_ACCESS_TOKEN"`

	// 单次HTTP请求超时
	Timeout time.Duration `env:"EXPO_PUSH_TIMEOUT"`
}

const defaultExpoEndpoint = "https://exp.host/--/api/v2/push/send"

// ExpoProvider Expo HTTP推送客户端
type ExpoProvider struct {
	cfg    ExpoConfig
	client *http.Client
}

// NewExpoProvider 创建Expo推送客户端
func NewExpoProvider(cfg ExpoConfig) *ExpoProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultExpoEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ExpoProvider{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

// expoResponse Expo批量发送响应体
type expoResponse struct {
	Data []struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"data"`
}

// SendBatch 批量发送，整批请求失败时返回错误
func (p *ExpoProvider) SendBatch(ctx context.Context, messages []Message) ([]Outcome, error) {
	if len(messages) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("marshal push batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("push provider returned status %d", resp.StatusCode)
	}

	var body expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode push provider response: %w", err)
	}

	outcomes := make([]Outcome, 0, len(body.Data))
	for _, d := range body.Data {
		outcomes = append(outcomes, Outcome{Status: d.Status, Message: d.Message})
	}
	return outcomes, nil
}
