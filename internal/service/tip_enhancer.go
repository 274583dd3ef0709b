package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ironready/coach-api/internal/llm"
)

var ErrEmptyTip = errors.New("tip model returned empty text")

// TipEnhancer turns a muscle group and workout intensity into one short recovery tip.
type TipEnhancer interface {
	Enhance(ctx context.Context, muscle, intensity string, maxWords int) (string, error)
}

// TipEnhancerConfig holds model settings for tip generation.
type TipEnhancerConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type tipEnhancer struct {
	cfg   TipEnhancerConfig
	model llm.ChatModel
}

// NewTipEnhancer creates a TipEnhancer backed by a chat model.
func NewTipEnhancer(cfg TipEnhancerConfig, model llm.ChatModel) TipEnhancer {
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.6
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 80
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &tipEnhancer{cfg: cfg, model: model}
}

const tipSystemInstruction = "You are a certified sports recovery specialist. You give short, practical advice."

const tipUserTemplate = `Give ONE short, highly actionable recovery tip for the %s muscle group after a %s workout.
Keep it under %d words. Output ONLY the tip text, no quotes, no preamble.`

func (e *tipEnhancer) Enhance(ctx context.Context, muscle, intensity string, maxWords int) (string, error) {
	if maxWords <= 0 {
		maxWords = 50
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	out, err := e.model.Complete(ctx, llm.Request{
		Model:       e.cfg.Model,
		System:      tipSystemInstruction,
		User:        fmt.Sprintf(tipUserTemplate, muscle, intensity, maxWords),
		Temperature: e.cfg.Temperature,
		MaxTokens:   e.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("tip for %s: %w", muscle, err)
	}
	tip := cleanTip(out, maxWords)
	if tip == "" {
		return "", ErrEmptyTip
	}
	return tip, nil
}

// cleanTip trims whitespace and surrounding quotes and cuts the text to
// maxWords words, marking a cut with "...".
func cleanTip(s string, maxWords int) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`“”")
	s = strings.TrimSpace(s)
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	if len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return strings.Join(words, " ")
}
