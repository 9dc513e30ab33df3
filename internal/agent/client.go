// Package agent wraps the third-party AI services the trainer talks to:
// the language model, speech synthesis and transcription.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

var ErrNoAPIKey = errors.New("agent: API key required")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one generation call. Instructions carry the system prompt;
// Schema, when set, asks the model for strict JSON of that shape.
type Request struct {
	Model           string
	Instructions    string
	Messages        []Message
	MaxOutputTokens int64
	SchemaName      string
	Schema          map[string]any
}

// OpenAIClient generates text through the OpenAI Responses API.
type OpenAIClient struct {
	client *openai.Client
	apiKey string
	model  string
}

func NewOpenAIClient(apiKey, model string, opts ...option.RequestOption) *OpenAIClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	client := openai.NewClient(opts...)
	return &OpenAIClient{client: &client, apiKey: apiKey, model: model}
}

func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return "", errors.New("agent: model must not be empty")
	}

	input := make([]responses.ResponseInputItemUnionParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		input = append(input, responses.ResponseInputItemParamOfMessage(m.Content, inputRole(m.Role)))
	}

	params := responses.ResponseNewParams{
		Model: model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
	}
	if req.Instructions != "" {
		params.Instructions = openai.String(req.Instructions)
	}
	if req.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(req.MaxOutputTokens)
	}
	if req.Schema != nil {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: openai.Bool(true),
					Type:   "json_schema",
				},
			},
		}
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("agent: openai responses: %w", err)
	}
	return resp.OutputText(), nil
}

func inputRole(r Role) responses.EasyInputMessageRole {
	switch r {
	case RoleAssistant:
		return responses.EasyInputMessageRoleAssistant
	case RoleSystem:
		return responses.EasyInputMessageRoleSystem
	default:
		return responses.EasyInputMessageRoleUser
	}
}
