package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var _ Collaborator = (*OpenAICollaborator)(nil)

// OpenAICollaborator talks to an OpenAI-compatible endpoint. A custom base
// URL points it at a local model server.
type OpenAICollaborator struct {
	client         *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
}

func NewOpenAICollaborator(baseURL, apiKey, model string) *OpenAICollaborator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAICollaborator{
		client:         openai.NewClientWithConfig(config),
		model:          model,
		embeddingModel: openai.SmallEmbedding3,
	}
}

func (o *OpenAICollaborator) Summarize(ctx context.Context, text string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Summarize the document in two or three sentences. Reply with the summary only.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no summary generated")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (o *OpenAICollaborator) SuggestTags(ctx context.Context, text string, k int) ([]string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("Suggest up to %d short topic tags for the document. Reply with a comma separated list only, lowercase.", k),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no tags generated")
	}

	var tags []string
	for _, tag := range strings.Split(resp.Choices[0].Message.Content, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) > k {
		tags = tags[:k]
	}

	return tags, nil
}

func (o *OpenAICollaborator) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: o.embeddingModel,
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding generated")
	}

	return resp.Data[0].Embedding, nil
}
