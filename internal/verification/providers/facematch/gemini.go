// Package facematch compares an ID photo against a live facial image.
package facematch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"google.golang.org/genai"

	"kycdesk/internal/kyc/images"
	"kycdesk/internal/verification/providers"
)

const geminiProviderID = "gemini"

const comparisonPrompt = `I have two images: one from an ID card and one from a facial scan.
I need to determine if they are the same person.
Please analyze the facial features and provide a match score between 0 and 1,
where 1 is a perfect match and 0 is no match at all.
Also provide a brief explanation of your reasoning.

Format your response exactly like this:
Score: [number between 0 and 1]
Explanation: [your detailed explanation]`

// GeminiConfig configures the generative model endpoint. An empty BaseURL
// uses the public Gemini API.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Gemini asks a multimodal generative model whether two faces match.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a comparer on the Gemini API. httpClient may be nil.
func NewGemini(ctx context.Context, cfg GeminiConfig, httpClient *http.Client) (*Gemini, error) {
	opts := genai.HTTPOptions{BaseURL: cfg.BaseURL}
	if cfg.Timeout > 0 {
		opts.Timeout = &cfg.Timeout
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: opts,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (*Gemini) ID() string { return geminiProviderID }

// Compare sends both images with the scoring prompt and parses the reply.
// Transport and API failures are returned as *providers.Error.
func (g *Gemini) Compare(ctx context.Context, idImage, faceImage string) (*providers.Comparison, error) {
	idImg, err := images.Decode(idImage)
	if err != nil {
		return nil, providers.NewError(providers.CategoryBadInput, geminiProviderID, "cannot read ID image", err)
	}
	faceImg, err := images.Decode(faceImage)
	if err != nil {
		return nil, providers.NewError(providers.CategoryBadInput, geminiProviderID, "cannot read facial image", err)
	}

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(comparisonPrompt),
		genai.NewPartFromBytes(idImg.Data, idImg.MIME),
		genai.NewPartFromBytes(faceImg.Data, faceImg.MIME),
	}, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, providers.NewError(categorize(ctx, err), geminiProviderID, "generate content", err)
	}
	return ParseComparison(resp.Text()), nil
}

func categorize(ctx context.Context, err error) providers.Category {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return providers.CategoryForStatus(apiErr.Code)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return providers.CategoryTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return providers.CategoryOutage
	}
	// Anything else is a response the client could not decode.
	return providers.CategoryBadInput
}
