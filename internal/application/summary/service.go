package summary

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/codeiq-dev/codeiq/internal/domain/ai"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// maxFindingsInPrompt bounds the payload handed to the theme extraction
// stage on very large runs.
const maxFindingsInPrompt = 200

// Service produces the executive summary in two stages: theme extraction
// over the raw findings, then a narrative written from the themes and the
// category scores. Both stages must succeed for a summary to exist.
type Service struct {
	Client ai.Client
}

func New(client ai.Client) *Service {
	return &Service{Client: client}
}

// Synthesize implements domain.Synthesizer.
func (s *Service) Synthesize(ctx context.Context, findings []domain.Finding, scores map[string]float64) (string, error) {
	payload, err := findingsJSON(findings)
	if err != nil {
		return "", &domain.SynthesisError{Stage: "themes", Err: err}
	}

	themes, err := s.extractThemes(ctx, payload)
	if err != nil {
		return "", &domain.SynthesisError{Stage: "themes", Err: err}
	}
	log.Debug().Int("themes", len(themes)).Msg("theme extraction complete")

	narrative, err := s.narrate(ctx, themes, scores)
	if err != nil {
		return "", &domain.SynthesisError{Stage: "narrative", Err: err}
	}
	return narrative, nil
}

func (s *Service) extractThemes(ctx context.Context, payload string) ([]string, error) {
	themes, err := s.Client.ExtractThemes(ctx, payload)
	if err != nil {
		// one immediate re-attempt, transient provider errors are common
		themes, err = s.Client.ExtractThemes(ctx, payload)
	}
	return themes, err
}

func (s *Service) narrate(ctx context.Context, themes []string, scores map[string]float64) (string, error) {
	out, err := s.Client.Narrate(ctx, themes, scores)
	if err != nil {
		out, err = s.Client.Narrate(ctx, themes, scores)
	}
	return out, err
}

func findingsJSON(findings []domain.Finding) (string, error) {
	if len(findings) > maxFindingsInPrompt {
		findings = findings[:maxFindingsInPrompt]
	}
	b, err := json.Marshal(findings)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
