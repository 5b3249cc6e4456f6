package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/muse/internal/config"
	"github.com/hpungsan/muse/internal/errors"
)

// probePrompt is sent by Probe to find a model that answers.
const probePrompt = "Say hello"

// GeminiConfig configures a Gemini client.
type GeminiConfig struct {
	BaseURL    string
	APIKey     string
	Models     []string
	MaxRetries int
	Timeout    time.Duration
	RetryDelay time.Duration // base for exponential backoff between attempts
}

// GeminiConfigFrom builds a GeminiConfig from application config.
func GeminiConfigFrom(cfg *config.Config) GeminiConfig {
	return GeminiConfig{
		BaseURL:    cfg.GeneratorBaseURL,
		APIKey:     cfg.APIKey(),
		Models:     cfg.GeneratorModels,
		MaxRetries: cfg.GeneratorMaxRetries,
		Timeout:    time.Duration(cfg.GeneratorTimeoutSeconds) * time.Second,
		RetryDelay: 500 * time.Millisecond,
	}
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

var quoteGenerationConfig = &generationConfig{
	Temperature:     0.9,
	TopP:            0.8,
	TopK:            40,
	MaxOutputTokens: 100,
}

// Gemini talks to the generateContent REST API, falling back through the
// configured models until one answers. The model that answered last is tried
// first on the next call.
type Gemini struct {
	cfg        GeminiConfig
	httpClient *http.Client
	logger     *zap.Logger
	intn       func(int) int

	mu     sync.Mutex
	active string
	failed bool
}

// NewGemini creates a Gemini client.
func NewGemini(cfg GeminiConfig, logger *zap.Logger) *Gemini {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultGeneratorBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = config.DefaultGeneratorModels
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Status implements Generator.
func (g *Gemini) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Status{
		Ready: g.cfg.APIKey != "" && !g.failed,
		Model: g.active,
	}
}

// Probe walks the model list with a trivial prompt and remembers the first
// model that answers.
func (g *Gemini) Probe(ctx context.Context) error {
	_, err := g.run(ctx, probePrompt, nil)
	return err
}

// Generate implements Generator.
func (g *Gemini) Generate(ctx context.Context, category string) (Result, error) {
	return g.run(ctx, pickPrompt(category, g.intn), quoteGenerationConfig)
}

func (g *Gemini) run(ctx context.Context, prompt string, gc *generationConfig) (Result, error) {
	if g.cfg.APIKey == "" {
		return Result{}, errors.NewGeneratorUnavailable("no API key configured")
	}

	var lastErr error
	for _, model := range g.candidateModels() {
		text, err := g.call(ctx, model, prompt, gc)
		if err == nil {
			g.setActive(model)
			return Result{Raw: text, Model: model}, nil
		}
		if ctx.Err() != nil {
			return Result{}, errors.NewCancelled("generate")
		}
		g.logger.Warn("model failed, trying next", zap.String("model", model), zap.Error(err))
		lastErr = err
	}

	g.mu.Lock()
	g.failed = true
	g.active = ""
	g.mu.Unlock()
	return Result{}, errors.NewGeneratorFailed(lastErr)
}

// candidateModels returns the model list with the active model first.
func (g *Gemini) candidateModels() []string {
	g.mu.Lock()
	active := g.active
	g.mu.Unlock()

	models := make([]string, 0, len(g.cfg.Models))
	if active != "" {
		models = append(models, active)
	}
	for _, m := range g.cfg.Models {
		if m != active {
			models = append(models, m)
		}
	}
	return models
}

func (g *Gemini) setActive(model string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != model {
		g.logger.Info("using model", zap.String("model", model))
	}
	g.active = model
	g.failed = false
}

// call sends one prompt to one model, retrying with backoff on 503 and on
// transport errors. No delay follows the last attempt.
func (g *Gemini) call(ctx context.Context, model, prompt string, gc *generationConfig) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: gc,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(g.cfg.BaseURL, "/"), strings.TrimPrefix(model, "models/"))

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < g.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create generate request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.cfg.APIKey)

		r, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
		} else if r.StatusCode == http.StatusServiceUnavailable {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			lastErr = fmt.Errorf("model %s unavailable", model)
		} else {
			resp = r
			break
		}

		if attempt+1 == g.cfg.MaxRetries {
			break
		}
		g.logger.Debug("model busy, retrying", zap.String("model", model), zap.Int("attempt", attempt+1), zap.Error(lastErr))
		if err := g.backoff(ctx, attempt); err != nil {
			return "", err
		}
	}
	if resp == nil {
		return "", fmt.Errorf("no response from %s: %w", model, lastErr)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model %s status %s: %s", model, resp.Status, strings.TrimSpace(string(data)))
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("model %s returned no candidates", model)
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// backoff sleeps for an exponentially growing delay or until ctx is done.
func (g *Gemini) backoff(ctx context.Context, attempt int) error {
	d := g.cfg.RetryDelay * time.Duration(1<<attempt)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
