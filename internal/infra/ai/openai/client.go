package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/codeiq-dev/codeiq/internal/domain/ai"
	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
	"github.com/codeiq-dev/codeiq/internal/infra/ai/prompt"
)

const maxTokens = 2048

// Client implements the remote LLM port and the embedding port on top of the
// OpenAI chat/embeddings APIs.
type Client struct {
	*openai.Client
	Model      string
	EmbedModel string
	EmbedDim   int
}

func NewClient(apiKey, model, embedModel string, embedDim int) *Client {
	if embedModel == "" {
		embedModel = string(openai.SmallEmbedding3)
	}
	if embedDim == 0 {
		embedDim = 1536
	}
	return &Client{
		Client:     openai.NewClient(apiKey),
		Model:      model,
		EmbedModel: embedModel,
		EmbedDim:   embedDim,
	}
}

// Review performs one role-scoped structured review of a file.
func (c *Client) Review(ctx context.Context, role analysis.Role, file analysis.SourceFile) ([]analysis.Finding, error) {
	raw, err := c.jsonCompletion(ctx,
		prompt.SystemPromptForRole(role),
		prompt.UserPromptForFile(file),
	)
	if err != nil {
		return nil, err
	}
	findings, err := prompt.ParseReview(raw, role, file.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domai.ErrMalformedResponse, err)
	}
	return findings, nil
}

// ExtractThemes runs synthesis stage 1 over the serialized finding set.
func (c *Client) ExtractThemes(ctx context.Context, findingsJSON string) ([]string, error) {
	raw, err := c.jsonCompletion(ctx,
		prompt.ThemesSystemPrompt(),
		prompt.ThemesUserPrompt(findingsJSON),
	)
	if err != nil {
		return nil, err
	}
	themes, err := prompt.ParseThemes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domai.ErrMalformedResponse, err)
	}
	return themes, nil
}

// Narrate runs synthesis stage 2; the output is free text.
func (c *Client) Narrate(ctx context.Context, themes []string, scores map[string]float64) (string, error) {
	return c.textCompletion(ctx,
		prompt.NarrativeSystemPrompt(),
		prompt.NarrativeUserPrompt(themes, scores),
	)
}

// Answer produces a grounded answer from retrieved chunks; returned verbatim.
func (c *Client) Answer(ctx context.Context, question string, chunks []domai.ContextChunk) (string, error) {
	return c.textCompletion(ctx,
		prompt.AnswerSystemPrompt(),
		prompt.AnswerUserPrompt(question, chunks),
	)
}

// Embed computes one vector per input text, batched by the caller.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.EmbedModel),
	})
	if err != nil {
		return nil, mapProviderErr(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: want %d got %d", len(texts), len(resp.Data))
	}
	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (c *Client) Dim() int { return c.EmbedDim }

func (c *Client) jsonCompletion(ctx context.Context, system, user string) (string, error) {
	return c.completion(ctx, system, user, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

func (c *Client) textCompletion(ctx context.Context, system, user string) (string, error) {
	return c.completion(ctx, system, user, nil)
}

func (c *Client) completion(ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat) (string, error) {
	model := c.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	req := openai.ChatCompletionRequest{
		Model:          model,
		ResponseFormat: format,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") || strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5") {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapProviderErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", domai.ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// mapProviderErr surfaces quota errors as the domain sentinel so the HTTP
// layer can answer 429.
func mapProviderErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return fmt.Errorf("%w: %v", domai.ErrQuotaExceeded, err)
	}
	return err
}
