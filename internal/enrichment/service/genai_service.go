package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linkwell/orderdesk/internal/config"
	"github.com/linkwell/orderdesk/internal/enrichment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

// Service calls the Gemini API for page copy and domain qualification.
type Service struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

func New(p Params) (domain.Service, error) {
	svc := &Service{
		model: p.Cfg.GeminiModel,
		log:   p.Log.Named("enrichment.service"),
	}

	if strings.TrimSpace(p.Cfg.GeminiAPIKey) == "" {
		// Leave the client nil; every call reports ErrNotConfigured and the
		// caller skips enrichment for that item.
		return svc, nil
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: p.Cfg.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	svc.client = client
	return svc, nil
}

type pageEnrichmentPayload struct {
	Keywords    string `json:"keywords"`
	Description string `json:"description"`
}

type domainVerdictPayload struct {
	Status    string `json:"status"`
	Reasoning string `json:"reasoning"`
}

func (s *Service) EnrichTargetPage(ctx context.Context, pageURL string) (domain.PageEnrichment, error) {
	if s.client == nil {
		return domain.PageEnrichment{}, domain.ErrNotConfigured
	}

	prompt := fmt.Sprintf(`You are an SEO assistant for a guest-post link-building agency.
For the target page %q produce JSON with two fields:
"keywords": a comma-separated list of 5-10 keywords the page should rank for,
"description": a 1-2 sentence summary of the page suitable for a content brief.
Respond with JSON only.`, pageURL)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return domain.PageEnrichment{}, err
	}

	var payload pageEnrichmentPayload
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		return domain.PageEnrichment{}, domain.ErrMalformedOutput
	}
	if strings.TrimSpace(payload.Keywords) == "" && strings.TrimSpace(payload.Description) == "" {
		return domain.PageEnrichment{}, domain.ErrMalformedOutput
	}

	return domain.PageEnrichment{
		Keywords:    strings.TrimSpace(payload.Keywords),
		Description: strings.TrimSpace(payload.Description),
	}, nil
}

func (s *Service) QualifyDomain(ctx context.Context, domainName string, targetURLs []string) (domain.DomainVerdict, error) {
	if s.client == nil {
		return domain.DomainVerdict{}, domain.ErrNotConfigured
	}

	prompt := fmt.Sprintf(`You evaluate publishing domains for guest-post placements.
Domain: %q
Target pages the placed links would point at:
%s
Respond with JSON only: {"status": one of "high_quality", "average_quality", "disqualified", "reasoning": one sentence}.`,
		domainName, strings.Join(targetURLs, "\n"))

	text, err := s.generate(ctx, prompt)
	if err != nil {
		return domain.DomainVerdict{}, err
	}

	var payload domainVerdictPayload
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		return domain.DomainVerdict{}, domain.ErrMalformedOutput
	}

	status := strings.TrimSpace(payload.Status)
	switch status {
	case domain.StatusHighQuality, domain.StatusAverageQuality, domain.StatusDisqualified:
	default:
		return domain.DomainVerdict{}, domain.ErrMalformedOutput
	}

	return domain.DomainVerdict{
		Domain:    domainName,
		Status:    status,
		Reasoning: strings.TrimSpace(payload.Reasoning),
	}, nil
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	result, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", domain.ErrMalformedOutput
	}
	return text, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around
// its structured output.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return strings.TrimSpace(text)
}
