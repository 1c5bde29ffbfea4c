package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const extractionPrompt = `Here is an image of a gas/water meter.
Can you provide the integer consumption value shown in the image, without any decimals?

Please be extra careful with the digits to avoid any confusion,
especially between similar-looking numbers like 0 and 1.

Return the answer using this JSON schema:
  {
    "type": "object",
    "properties": {
      "value": { "type": "number" }
    }
  }`

var dataURIPrefixRe = regexp.MustCompile(`^data:image/(\w+);base64,`)

// Config configures the Gemini extraction client.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// GeminiExtractor extracts meter readings through the Gemini
// generateContent REST API.
type GeminiExtractor struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

func NewGemini(cfg Config, log *zap.Logger) *GeminiExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GeminiExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    log.Named("vision.gemini"),
	}
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string `json:"response_mime_type"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiExtractor) Extract(ctx context.Context, imageBase64 string) (int64, error) {
	if g.cfg.APIKey == "" {
		return 0, fmt.Errorf("%w: api key is not configured", ErrExtraction)
	}

	mimeType := "image/png"
	if m := dataURIPrefixRe.FindStringSubmatch(imageBase64); m != nil {
		mimeType = "image/" + m[1]
	}

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{Text: extractionPrompt},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     dataURIPrefixRe.ReplaceAllString(imageBase64, ""),
				}},
			},
		}},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	})
	if err != nil {
		return 0, fmt.Errorf("%w: encode request: %v", ErrExtraction, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.cfg.Endpoint, g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrExtraction, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", g.cfg.APIKey)

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.log.Warn("extraction request failed",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet),
		)
		return 0, fmt.Errorf("%w: unexpected status %d", ErrExtraction, resp.StatusCode)
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrExtraction, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return 0, fmt.Errorf("%w: empty response", ErrExtraction)
	}

	var answer struct {
		Value *float64 `json:"value"`
	}
	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return 0, fmt.Errorf("%w: parse answer: %v", ErrExtraction, err)
	}
	if answer.Value == nil {
		return 0, fmt.Errorf("%w: answer has no value", ErrExtraction)
	}

	g.log.Debug("reading extracted",
		zap.Float64("value", *answer.Value),
		zap.Duration("elapsed", time.Since(start)),
	)

	return int64(*answer.Value), nil
}
