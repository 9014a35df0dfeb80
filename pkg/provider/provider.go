package provider

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Message is one prompt message sent to the chat completion API.
type Message struct {
	Role    string
	Content string
}

// Provider answers a chat prompt. A failed call returns an error, never an
// error text disguised as a completion.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Config points at an Azure-style chat deployment: requests go to
// <APIBase>/deployments/<Model>/chat/completions?api-version=<APIVersion>
// authenticated with an api-key header.
type Config struct {
	APIBase     string
	Model       string
	APIVersion  string
	AccessToken string
}

type ChatClient struct {
	client *openai.Client
	model  string
}

func New(cfg Config) (*ChatClient, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("provider access token is required")
	}
	if strings.TrimSpace(cfg.APIBase) == "" {
		return nil, fmt.Errorf("provider api base is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("provider model is required")
	}

	clientCfg := openai.DefaultAzureConfig(cfg.AccessToken, cfg.APIBase)
	if strings.TrimSpace(cfg.APIVersion) != "" {
		clientCfg.APIVersion = cfg.APIVersion
	}
	// Deployment names map 1:1 onto model names upstream.
	clientCfg.AzureModelMapperFunc = func(model string) string { return model }

	return &ChatClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (c *ChatClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("empty prompt")
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		case "system":
			role = openai.ChatMessageRoleSystem
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
