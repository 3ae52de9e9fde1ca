package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"vocal_eval_backend/internal/config"
	"vocal_eval_backend/pkg/logger"

	"go.uber.org/zap"
)

// GeneratorService 负责把评价数据投递给外部报告生成器（n8n 自动化流程）。
// 投递是尽力而为：生成器完成后会另行回调 /api/webhook/report-completed。
type GeneratorService struct {
	mu     sync.RWMutex
	config config.GeneratorConfig
	client *http.Client
}

func NewGeneratorService(cfg config.GeneratorConfig) *GeneratorService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeneratorService{
		config: cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// UpdateConfig 配置热更新时替换生成器地址，进行中的投递不受影响
func (s *GeneratorService) UpdateConfig(cfg config.GeneratorConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

func (s *GeneratorService) webhookURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config.WebhookURL
}

type GeneratorEvaluation struct {
	JudgeID           string `json:"judgeId"`
	Pitch             int    `json:"pitch"`
	Rhythm            int    `json:"rhythm"`
	Expression        int    `json:"expression"`
	Technique         int    `json:"technique"`
	PitchComment      string `json:"pitch_comment"`
	RhythmComment     string `json:"rhythm_comment"`
	ExpressionComment string `json:"expression_comment"`
	TechniqueComment  string `json:"technique_comment"`
}

type GeneratorPayload struct {
	VideoRecordID string                `json:"videoRecordId"`
	StudentID     string                `json:"studentId"`
	SongID        string                `json:"songId"`
	SongTitle     string                `json:"songTitle"`
	StudentName   string                `json:"studentName"`
	Evaluations   []GeneratorEvaluation `json:"evaluations"`
}

// Dispatch 同步 POST 到生成器 Webhook。返回的错误仅供调用方记录：
// 生成器在传输层报 500 时任务仍可能继续执行，所以结果不作为成败依据。
func (s *GeneratorService) Dispatch(ctx context.Context, payload *GeneratorPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL(), bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("generator webhook error (status %d): %s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err == nil {
		logger.Log.Debug("generator webhook accepted",
			zap.String("videoRecordId", payload.VideoRecordID),
			zap.Any("result", result))
	}

	return nil
}
