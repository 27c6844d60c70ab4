package summary

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeiq-dev/codeiq/internal/domain/ai"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

type mockClient struct {
	extractFn func(ctx context.Context, findingsJSON string) ([]string, error)
	narrateFn func(ctx context.Context, themes []string, scores map[string]float64) (string, error)
}

func (m *mockClient) Review(context.Context, domain.Role, domain.SourceFile) ([]domain.Finding, error) {
	panic("not used")
}

func (m *mockClient) ExtractThemes(ctx context.Context, findingsJSON string) ([]string, error) {
	return m.extractFn(ctx, findingsJSON)
}

func (m *mockClient) Narrate(ctx context.Context, themes []string, scores map[string]float64) (string, error) {
	return m.narrateFn(ctx, themes, scores)
}

func (m *mockClient) Answer(context.Context, string, []ai.ContextChunk) (string, error) {
	panic("not used")
}

func sampleFindings() []domain.Finding {
	return []domain.Finding{
		{Category: domain.CategorySecurity, FilePath: "auth.py", Severity: domain.SeverityHigh, Description: "hardcoded secret"},
		{Category: domain.CategoryPerformance, FilePath: "db.py", Severity: domain.SeverityMedium, Description: "query in loop"},
	}
}

func TestSynthesizeChainsBothStages(t *testing.T) {
	var gotJSON string
	var gotThemes []string
	client := &mockClient{
		extractFn: func(_ context.Context, findingsJSON string) ([]string, error) {
			gotJSON = findingsJSON
			return []string{"secrets management", "database access patterns"}, nil
		},
		narrateFn: func(_ context.Context, themes []string, scores map[string]float64) (string, error) {
			gotThemes = themes
			assert.Equal(t, 7.5, scores["overall"])
			return "## Executive Summary\nAll good.", nil
		},
	}

	out, err := New(client).Synthesize(context.Background(), sampleFindings(), map[string]float64{"overall": 7.5})
	require.NoError(t, err)
	assert.Equal(t, "## Executive Summary\nAll good.", out)
	assert.Equal(t, []string{"secrets management", "database access patterns"}, gotThemes)

	// stage 1 receives the findings as valid JSON
	var decoded []domain.Finding
	require.NoError(t, json.Unmarshal([]byte(gotJSON), &decoded))
	assert.Len(t, decoded, 2)
}

func TestSynthesizeThemeStageFailure(t *testing.T) {
	client := &mockClient{
		extractFn: func(context.Context, string) ([]string, error) {
			return nil, errors.New("model timeout")
		},
	}

	_, err := New(client).Synthesize(context.Background(), sampleFindings(), nil)
	require.Error(t, err)

	var serr *domain.SynthesisError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "themes", serr.Stage)
}

func TestSynthesizeNarrativeStageFailure(t *testing.T) {
	client := &mockClient{
		extractFn: func(context.Context, string) ([]string, error) {
			return []string{"one theme"}, nil
		},
		narrateFn: func(context.Context, []string, map[string]float64) (string, error) {
			return "", errors.New("quota")
		},
	}

	_, err := New(client).Synthesize(context.Background(), sampleFindings(), nil)
	var serr *domain.SynthesisError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "narrative", serr.Stage)
}

func TestSynthesizeRetriesEachStageOnce(t *testing.T) {
	extractCalls, narrateCalls := 0, 0
	client := &mockClient{
		extractFn: func(context.Context, string) ([]string, error) {
			extractCalls++
			if extractCalls == 1 {
				return nil, errors.New("transient")
			}
			return []string{"theme"}, nil
		},
		narrateFn: func(context.Context, []string, map[string]float64) (string, error) {
			narrateCalls++
			if narrateCalls == 1 {
				return "", errors.New("transient")
			}
			return "summary", nil
		},
	}

	out, err := New(client).Synthesize(context.Background(), sampleFindings(), nil)
	require.NoError(t, err)
	assert.Equal(t, "summary", out)
	assert.Equal(t, 2, extractCalls)
	assert.Equal(t, 2, narrateCalls)
}

func TestSynthesizeCapsFindingsPayload(t *testing.T) {
	many := make([]domain.Finding, 0, maxFindingsInPrompt+50)
	for i := 0; i < maxFindingsInPrompt+50; i++ {
		many = append(many, domain.Finding{
			Category: domain.CategoryQuality, FilePath: "f.py",
			Severity: domain.SeverityLow, Description: "dup",
		})
	}

	client := &mockClient{
		extractFn: func(_ context.Context, findingsJSON string) ([]string, error) {
			var decoded []domain.Finding
			require.NoError(t, json.Unmarshal([]byte(findingsJSON), &decoded))
			assert.Len(t, decoded, maxFindingsInPrompt)
			return []string{"theme"}, nil
		},
		narrateFn: func(context.Context, []string, map[string]float64) (string, error) {
			return "done", nil
		},
	}

	_, err := New(client).Synthesize(context.Background(), many, nil)
	require.NoError(t, err)
}
