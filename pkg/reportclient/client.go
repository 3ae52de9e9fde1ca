// Package reportclient 封装报告状态查询的 HTTP 客户端，
// 供前端网关或脚本在发起生成后轮询报告直到终态。
package reportclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var (
	ErrPollingTimeout = errors.New("report did not reach a terminal status within the polling budget")
	ErrReportNotFound = errors.New("report not found")
)

// Report 服务端返回的报告生成记录
type Report struct {
	ID                  string     `json:"id"`
	VideoRecordID       string     `json:"videoRecordId"`
	StudentID           string     `json:"studentId"`
	Status              string     `json:"status"`
	TotalEvaluations    int        `json:"totalEvaluations"`
	RequiredEvaluations int        `json:"requiredEvaluations"`
	PDFURL              string     `json:"pdfUrl"`
	PDFFileName         string     `json:"pdfFileName"`
	ErrorMessage        string     `json:"errorMessage"`
	CompletedAt         *time.Time `json:"completedAt"`
}

// IsTerminal 报告是否已到终态
func (r *Report) IsTerminal() bool {
	return r.Status == "completed" || r.Status == "failed"
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// PollOptions 轮询预算。零值字段回落到默认的 10 秒 × 30 次。
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetReport 查询单次报告生成记录
func (c *Client) GetReport(ctx context.Context, reportID string) (*Report, error) {
	url := fmt.Sprintf("%s/api/reports/%s", c.baseURL, reportID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrReportNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var report Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}

	return &report, nil
}

// PollUntilTerminal 按固定间隔轮询报告直到 completed / failed。
// 瞬时错误（网络抖动、5xx）记日志后继续，但消耗轮询次数；
// 预算用尽仍未到终态返回 ErrPollingTimeout。
func (c *Client) PollUntilTerminal(ctx context.Context, reportID string, opts PollOptions) (*Report, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 30
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		report, err := c.GetReport(ctx, reportID)
		switch {
		case errors.Is(err, ErrReportNotFound):
			return nil, err
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("report status check failed",
				zap.String("reportId", reportID),
				zap.Int("attempt", attempt),
				zap.Error(err))
		default:
			if report.IsTerminal() {
				return report, nil
			}
			c.logger.Debug("report still processing",
				zap.String("reportId", reportID),
				zap.Int("attempt", attempt))
		}

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, ErrPollingTimeout
}
