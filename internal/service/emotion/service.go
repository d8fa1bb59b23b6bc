package emotion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	analysis "github.com/uninspired/inspire-wall/backend/internal/analysis/emotion"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// Config 控制情绪建议服务的行为。
type Config struct {
	Enabled bool
	Logger  *zap.Logger
}

// Suggestion 表示对一条投稿的情绪标签建议。
type Suggestion struct {
	Emotion    thread.Emotion `json:"emotion"`
	Color      string         `json:"color"`
	Confidence float32        `json:"confidence"`
	Reason     string         `json:"reason"`
	Source     string         `json:"source"`
}

// Classifier 是编译后的大模型调用链。
type Classifier interface {
	Invoke(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.Message, error)
}

// Service 使用大模型为投稿建议情绪标签，并在必要时回退到关键词规则。
type Service struct {
	enabled    bool
	classifier Classifier
	fallback   func(message string) analysis.Decision
	logger     *zap.Logger
}

// NewService 创建情绪建议服务。chatModel 为空时只使用关键词规则。
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		fallback: analysis.Analyze,
		logger:   logger.Named("emotion"),
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(suggestSystemPrompt),
		schema.UserMessage(suggestUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile emotion classifier chain: %w", err)
	}

	svc.classifier = runnable
	return svc, nil
}

// newWithClassifier 允许测试注入自定义分类器。
func newWithClassifier(c Classifier) *Service {
	return &Service{enabled: c != nil, classifier: c, fallback: analysis.Analyze, logger: zap.NewNop()}
}

// Enabled 返回大模型分类是否启用。
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.classifier != nil
}

// Suggest 为投稿文本推荐情绪标签。
func (s *Service) Suggest(ctx context.Context, message string) Suggestion {
	message = strings.TrimSpace(message)
	if !s.Enabled() || message == "" {
		return s.fallbackSuggestion(message)
	}

	msg, err := s.classifier.Invoke(ctx, map[string]any{
		"emotions": emotionList(),
		"message":  message,
	})
	if err != nil {
		s.logger.Warn("classifier invoke failed, use fallback", zap.Error(err))
		return s.fallbackSuggestion(message)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallbackSuggestion(message)
	}

	result, err := parseClassifierOutput(msg.Content)
	if err != nil {
		s.logger.Warn("classifier output parse failed, use fallback", zap.Error(err))
		return s.fallbackSuggestion(message)
	}

	label, ok := thread.ParseEmotion(result.Emotion)
	if !ok {
		return s.fallbackSuggestion(message)
	}

	confidence := result.Confidence
	if confidence <= 0 {
		confidence = 0.6
	}
	if confidence > 1 {
		confidence = 1
	}

	return Suggestion{
		Emotion:    label,
		Color:      label.Color(),
		Confidence: confidence,
		Reason:     strings.TrimSpace(result.Reason),
		Source:     "model",
	}
}

func (s *Service) fallbackSuggestion(message string) Suggestion {
	decision := s.fallback(message)

	confidence := float32(0.3)
	if decision.Score > 0 {
		confidence = 0.55
	}

	return Suggestion{
		Emotion:    decision.Emotion,
		Color:      decision.Emotion.Color(),
		Confidence: confidence,
		Reason:     "fallback",
		Source:     "keywords",
	}
}

type classifierPayload struct {
	Emotion    string  `json:"emotion"`
	Confidence float32 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// parseClassifierOutput 解析大模型返回的 JSON。
func parseClassifierOutput(content string) (*classifierPayload, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json object")
	}

	payload := &classifierPayload{}
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func emotionList() string {
	labels := make([]string, 0, len(thread.Emotions()))
	for _, e := range thread.Emotions() {
		labels = append(labels, string(e))
	}
	return strings.Join(labels, ", ")
}

const suggestSystemPrompt = `你是一个情绪标注助手，负责为匿名留言墙上的投稿挑选最贴切的情绪标签。
只能从以下标签中选择一个：{emotions}。
请只输出 JSON：{{"emotion": "<标签>", "confidence": <0~1 的小数>, "reason": "<不超过 20 字的理由>"}}`

const suggestUserPrompt = `投稿内容：{message}`
