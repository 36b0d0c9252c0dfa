package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/device"
	"github.com/yanqian/smart-irrigation/internal/domain/telemetry"
	"github.com/yanqian/smart-irrigation/internal/domain/weather"
	"github.com/yanqian/smart-irrigation/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/smart-irrigation/pkg/errors"
	"github.com/yanqian/smart-irrigation/pkg/metrics"
	"github.com/yanqian/smart-irrigation/pkg/util"
)

const (
	defaultMaxPromptTokens = 1024
	maxCompletionTokens    = 300
	maxTips                = 4
)

// Service produces irrigation advice for the dashboard.
type Service interface {
	Advise(ctx context.Context, userID int64, req Request) (Response, error)
}

// ChatClient is the LLM completion API.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// TokenCounter measures prompt size in model tokens.
type TokenCounter interface {
	Count(text string) int
	Truncate(text string, max int) string
}

// WeatherSource returns current conditions.
type WeatherSource interface {
	Current(ctx context.Context, city string) (weather.Response, error)
}

// SoilSource returns the newest sensor reading for a user.
type SoilSource interface {
	Latest(ctx context.Context, userID int64) (telemetry.Reading, bool, error)
}

// SettingsSource returns a user's irrigation settings.
type SettingsSource interface {
	GetSettings(ctx context.Context, userID int64) (device.Settings, error)
}

type service struct {
	cfg      Config
	client   ChatClient
	counter  TokenCounter
	weather  WeatherSource
	soil     SoilSource
	settings SettingsSource
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the advisor. client and counter may be nil, in which case only rule based advice is served.
func NewService(cfg Config, weatherSrc WeatherSource, soil SoilSource, settings SettingsSource, client ChatClient, counter TokenCounter, logger *slog.Logger) Service {
	if cfg.MaxPromptTokens <= 0 {
		cfg.MaxPromptTokens = defaultMaxPromptTokens
	}
	return &service{
		cfg:      cfg,
		client:   client,
		counter:  counter,
		weather:  weatherSrc,
		soil:     soil,
		settings: settings,
		logger:   logger.With("component", "advisor.service"),
		now:      util.NowUTC,
	}
}

func (s *service) Advise(ctx context.Context, userID int64, req Request) (Response, error) {
	if userID == 0 {
		return Response{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	wx, err := s.weather.Current(ctx, req.City)
	if err != nil {
		return Response{}, err
	}
	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return Response{}, err
	}
	reading, found, err := s.soil.Latest(ctx, userID)
	if err != nil {
		return Response{}, err
	}

	in := adviceInput{
		weather:    wx.Snapshot,
		hint:       wx.Recommendation,
		threshold:  settings.MoistureThreshold,
		crop:       settings.CropType,
		soil:       settings.SoilType,
		hasReading: found,
	}
	if found {
		in.moisture = reading.SoilMoisture
	}

	resp := baseline(in)
	resp.Weather = wx.Snapshot
	resp.MoistureThreshold = settings.MoistureThreshold
	resp.CropType = settings.CropType
	resp.GeneratedAt = s.now()
	if found {
		m := reading.SoilMoisture
		resp.SoilMoisture = &m
	}

	if s.client == nil {
		return resp, nil
	}
	llmAdvice, usage, err := s.askLLM(ctx, in, resp)
	if err != nil {
		s.logger.Warn("llm advice failed, serving rule based advice", "user_id", userID, "error", err)
		return resp, nil
	}
	resp.Advice = llmAdvice.Advice
	resp.Confidence = llmAdvice.Confidence
	resp.Priority = llmAdvice.Priority
	if len(llmAdvice.Tips) > 0 {
		resp.Tips = llmAdvice.Tips
	}
	resp.Source = SourceLLM
	resp.Usage = &usage
	s.logger.Info("llm advice generated", "user_id", userID, "priority", resp.Priority, "total_tokens", usage.TotalTokens)
	return resp, nil
}

type adviceInput struct {
	weather    weather.Snapshot
	hint       weather.Recommendation
	moisture   float64
	hasReading bool
	threshold  int
	crop       string
	soil       string
}

func baseline(in adviceInput) Response {
	threshold := float64(in.threshold)
	resp := Response{Source: SourceRules, Tips: []string{in.hint.Text}}
	rain := isRain(in.weather.Condition)
	switch {
	case !in.hasReading:
		resp.Advice = in.hint.Text + ". Connect a soil sensor for field specific advice."
		resp.Priority = in.hint.Level
		resp.Confidence = 60
	case rain:
		resp.Advice = "No irrigation needed today. Rain expected."
		resp.Priority = PriorityLow
		resp.Confidence = 95
		if in.moisture < threshold {
			resp.Advice = fmt.Sprintf("Hold irrigation: rain expected, but soil moisture %s%% is below the %d%% threshold. Recheck after rainfall.", formatPercent(in.moisture), in.threshold)
			resp.Priority = PriorityMedium
			resp.Confidence = 75
		}
	case in.moisture < threshold-10:
		resp.Advice = fmt.Sprintf("Irrigate now: soil moisture %s%% is well below the %d%% threshold.", formatPercent(in.moisture), in.threshold)
		resp.Priority = PriorityHigh
		resp.Confidence = 90
	case in.moisture < threshold:
		resp.Advice = fmt.Sprintf("Schedule irrigation soon: soil moisture %s%% is below the %d%% threshold.", formatPercent(in.moisture), in.threshold)
		resp.Priority = PriorityMedium
		if in.hint.Level == weather.LevelHigh {
			resp.Priority = PriorityHigh
		}
		resp.Confidence = 80
	default:
		resp.Advice = "Soil moisture levels are optimal. No irrigation needed today."
		resp.Priority = PriorityLow
		if in.hint.Level == weather.LevelHigh {
			resp.Advice = "Soil moisture levels are optimal, but hot and dry conditions may call for an evening check."
			resp.Priority = PriorityMedium
		}
		resp.Confidence = 85
	}
	if in.crop != "" {
		resp.Tips = append(resp.Tips, fmt.Sprintf("Settings tuned for %s on %s soil", in.crop, in.soil))
	}
	return resp
}

func isRain(condition string) bool {
	switch condition {
	case "Rain", "Drizzle", "Thunderstorm":
		return true
	default:
		return false
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
}

func (s *service) askLLM(ctx context.Context, in adviceInput, base Response) (llmAdvice, metrics.TokenUsage, error) {
	system := s.buildSystemPrompt()
	user := s.buildUserPrompt(in, base)
	if s.counter != nil {
		budget := s.cfg.MaxPromptTokens - s.counter.Count(system)
		if budget <= 0 {
			return llmAdvice{}, metrics.TokenUsage{}, errors.New("system prompt exceeds token budget")
		}
		user = s.counter.Truncate(user, budget)
	}

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []chatgpt.Message{
			{Role: chatgpt.RoleSystem, Content: system},
			{Role: chatgpt.RoleUser, Content: user},
		},
		Temperature:    s.cfg.Temperature,
		MaxTokens:      maxCompletionTokens,
		ResponseFormat: chatgpt.JSONObject,
	})
	if err != nil {
		return llmAdvice{}, metrics.TokenUsage{}, apperrors.Wrap("llm_error", "chatgpt request failed", err)
	}
	if len(completion.Choices) == 0 {
		return llmAdvice{}, metrics.TokenUsage{}, apperrors.Wrap("llm_error", "chatgpt returned no choices", nil)
	}
	content := completion.Choices[0].Message.Content
	advice, err := parseLLMAdvice(content)
	if err != nil {
		return llmAdvice{}, metrics.TokenUsage{}, apperrors.Wrap("llm_error", "chatgpt response malformed", err)
	}
	return advice, s.usage(completion.Usage, system+user, content), nil
}

func (s *service) usage(reported chatgpt.Usage, prompt, completion string) metrics.TokenUsage {
	if reported.TotalTokens > 0 {
		return metrics.TokenUsage{
			PromptTokens:     reported.PromptTokens,
			CompletionTokens: reported.CompletionTokens,
			TotalTokens:      reported.TotalTokens,
		}
	}
	if s.counter == nil {
		return metrics.TokenUsage{}
	}
	p := s.counter.Count(prompt)
	c := s.counter.Count(completion)
	return metrics.TokenUsage{PromptTokens: p, CompletionTokens: c, TotalTokens: p + c, Estimated: true}
}

func (s *service) buildSystemPrompt() string {
	base := strings.TrimSpace(s.cfg.Prompt)
	if base == "" {
		base = "You are an agronomist advising a farmer on today's irrigation."
	}
	enforcer := " Respond ONLY with valid minified JSON using this shape: {\"advice\":string,\"confidence\":number,\"priority\":\"low\"|\"medium\"|\"high\",\"tips\":string[]}. confidence is a percentage between 0 and 100. Keep advice under 40 words."
	return base + enforcer
}

func (s *service) buildUserPrompt(in adviceInput, base Response) string {
	wire := struct {
		Weather           weather.Snapshot `json:"weather"`
		SoilMoisture      *float64         `json:"soilMoisture"`
		MoistureThreshold int              `json:"moistureThreshold"`
		CropType          string           `json:"cropType,omitempty"`
		SoilType          string           `json:"soilType,omitempty"`
		RuleAdvice        string           `json:"ruleAdvice"`
		RulePriority      string           `json:"rulePriority"`
	}{
		Weather:           in.weather,
		MoistureThreshold: in.threshold,
		CropType:          in.crop,
		SoilType:          in.soil,
		RuleAdvice:        base.Advice,
		RulePriority:      base.Priority,
	}
	if in.hasReading {
		m := in.moisture
		wire.SoilMoisture = &m
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		payload = []byte("{}")
	}
	return "Give irrigation advice for today based ONLY on this field data: " + string(payload)
}

type llmAdvice struct {
	Advice     string
	Confidence int
	Priority   string
	Tips       []string
}

func parseLLMAdvice(raw string) (llmAdvice, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")
	sanitized = strings.TrimSpace(strings.TrimPrefix(sanitized, "json"))

	var wire struct {
		Advice     string          `json:"advice"`
		Confidence json.RawMessage `json:"confidence"`
		Priority   string          `json:"priority"`
		Tips       json.RawMessage `json:"tips"`
	}
	if err := json.Unmarshal([]byte(sanitized), &wire); err != nil {
		return llmAdvice{}, err
	}
	advice := strings.TrimSpace(wire.Advice)
	if advice == "" {
		return llmAdvice{}, errors.New("advice missing")
	}
	confidence, err := coerceConfidence(wire.Confidence)
	if err != nil {
		return llmAdvice{}, err
	}
	priority := strings.ToLower(strings.TrimSpace(wire.Priority))
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return llmAdvice{}, fmt.Errorf("unsupported priority %q", wire.Priority)
	}
	tips, err := coerceStringArray(wire.Tips)
	if err != nil {
		return llmAdvice{}, err
	}
	tips = normalizeList(tips)
	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	return llmAdvice{Advice: advice, Confidence: confidence, Priority: priority, Tips: tips}, nil
}

// coerceConfidence accepts 0.95, 95 or "95%".
func coerceConfidence(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("confidence missing")
	}
	var value float64
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "%")), 64)
		if err != nil {
			return 0, fmt.Errorf("confidence not numeric: %w", err)
		}
		value = parsed
	} else if err := json.Unmarshal(raw, &value); err != nil {
		return 0, err
	}
	if value > 0 && value <= 1 {
		value *= 100
	}
	if value < 0 || value > 100 || math.IsNaN(value) {
		return 0, fmt.Errorf("confidence out of range: %v", value)
	}
	return int(math.Round(value)), nil
}

func coerceStringArray(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var single string
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil, err
		}
		if strings.TrimSpace(single) == "" {
			return nil, nil
		}
		return []string{single}, nil
	case '[':
		var many []string
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, err
		}
		return many, nil
	default:
		return nil, errors.New("unsupported tips format")
	}
}

func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		clean := strings.TrimSpace(item)
		if clean == "" {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}
