package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI asks a chat completions model for structured activity ideas.
type OpenAI struct {
	client openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAI(apiKey, baseURL, model string, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

func (o *OpenAI) SuggestActivities(ctx context.Context, req SlotRequest) (*Ideas, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "activity_ideas",
		Description: openai.String("Activities that fit into a free calendar slot"),
		Schema:      ideasSchema(),
		Strict:      openai.Bool(true),
	}

	o.logger.Debug("requesting activity ideas", "model", o.model, "date", req.Date, "minutes", req.Minutes)

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(req)),
			openai.UserMessage(buildUserPrompt(req)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("completion returned no choices")
	}

	content := completion.Choices[0].Message.Content
	var ideas Ideas
	if err := json.Unmarshal([]byte(content), &ideas); err != nil {
		o.logger.Error("failed to parse ideas", "error", err, "raw", truncateStr(content, 1000))
		return nil, fmt.Errorf("parsing ideas: %w", err)
	}

	o.logger.Debug("parsed ideas", "activities", len(ideas.Activities))
	return &ideas, nil
}
