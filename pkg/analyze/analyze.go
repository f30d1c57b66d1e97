// Package analyze classifies crop images with Gemini, extracting a
// structured risk assessment from the model's free-form reply.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
	"k8s.io/klog/v2"
)

// DefaultModel is the Gemini model used unless overridden.
const DefaultModel = "gemini-2.5-flash"

const prompt = `Analyze this agricultural crop image.
Determine if there are signs of diseases or pests.

If there are signs of disease: specify the name of the disease, describe the
symptoms visible in the image, assess the degree of damage (mild, moderate,
severe) and suggest possible control measures.

If there are signs of pests: specify the name of the pest, describe signs of
its presence, assess the level of harm (low, medium, high) and suggest
possible control measures.

If there are no signs of diseases or pests, indicate this.

Structure your answer in JSON format with the following fields:
{
  "risk_detected": true/false,
  "risk_type": "disease" or "pest" or "none",
  "name": "name of disease or pest",
  "symptoms": "description of symptoms or signs",
  "severity": "mild/moderate/severe or low/medium/high",
  "recommendations": ["recommendation 1", "recommendation 2"]
}`

// Assessment is the structured result of one image analysis. When the model
// reply carries no parseable JSON block, only Raw is populated.
type Assessment struct {
	RiskDetected    bool     `json:"risk_detected"`
	RiskType        string   `json:"risk_type"`
	Name            string   `json:"name"`
	Symptoms        string   `json:"symptoms"`
	Severity        string   `json:"severity"`
	Recommendations []string `json:"recommendations"`
	Raw             string   `json:"raw_response,omitempty"`
}

// Client wraps the Gemini API for risk identification.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient builds a Gemini client. The key comes from the GEMINI_API_KEY
// environment variable when apiKey is empty.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key given and GEMINI_API_KEY is unset")
	}
	if model == "" {
		model = DefaultModel
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	klog.Infof("initialized Gemini client with model %s", model)
	return &Client{client: c, model: model}, nil
}

// Analyze sends one image to Gemini and parses the reply.
func (c *Client) Analyze(ctx context.Context, path string) (*Assessment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeFor(path)),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.4),
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return Parse(resp.Text()), nil
}

// Parse extracts the embedded JSON assessment from a model reply. A
// malformed or absent block degrades to a raw-text assessment instead of
// failing.
func Parse(text string) *Assessment {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var a Assessment
		if err := json.Unmarshal([]byte(text[start:end+1]), &a); err == nil {
			return &a
		}
		klog.V(1).Infof("reply JSON block did not parse, keeping raw text")
	}
	return &Assessment{Raw: text}
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
