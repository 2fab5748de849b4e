package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
}

// NewGeminiGenerator creates a Gemini API client for apiKey.
func NewGeminiGenerator(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client}, nil
}

// Generate sends the prompt and any attachments as a single user turn.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	parts := make([]*genai.Part, 0, len(req.Attachments)+1)
	for _, a := range req.Attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Format == FormatResumeAnalysis {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = resumeAnalysisSchema()
	}

	resp, err := g.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", req.Model, err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

func resumeAnalysisSchema() *genai.Schema {
	str := &genai.Schema{Type: genai.TypeString}
	strList := &genai.Schema{Type: genai.TypeArray, Items: str}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"resumeQualityScore": {
				Type:        genai.TypeNumber,
				Description: "Score from 1 to 100 on structure, clarity, and grammar.",
			},
			"jobReadinessScore": {
				Type:        genai.TypeNumber,
				Description: "Score from 1 to 100 on relevance to the desired role.",
			},
			"analysisSummary": str,
			"keywordsPresent": strList,
			"keywordsMissing": strList,
			"suggestions": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"structure":    str,
					"skills":       str,
					"achievements": str,
				},
			},
		},
		Required: []string{
			"resumeQualityScore", "jobReadinessScore", "analysisSummary",
			"keywordsPresent", "keywordsMissing", "suggestions",
		},
	}
}
