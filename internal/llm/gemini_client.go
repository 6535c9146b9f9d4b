package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	"cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"google.golang.org/api/option"
)

type geminiClient struct {
	model       string
	temperature float64
	client      *generativelanguage.GenerativeClient
}

func newGeminiClient(ctx context.Context, model string, temperature float64, opts ...option.ClientOption) (*geminiClient, error) {
	client, err := generativelanguage.NewGenerativeClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &geminiClient{model: model, temperature: temperature, client: client}, nil
}

func (c *geminiClient) Name() string {
	return fmt.Sprintf("Gemini (%s)", c.model)
}

func (c *geminiClient) request(req Request) *generativelanguagepb.GenerateContentRequest {
	model := c.model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	temperature := float32(c.temperature)
	config := &generativelanguagepb.GenerationConfig{Temperature: &temperature}
	if req.JSON {
		config.ResponseMimeType = "application/json"
	}
	pbReq := &generativelanguagepb.GenerateContentRequest{
		Model:            model,
		GenerationConfig: config,
		Contents: []*generativelanguagepb.Content{{
			Role:  "user",
			Parts: []*generativelanguagepb.Part{textPart(req.Prompt)},
		}},
	}
	if req.System != "" {
		pbReq.SystemInstruction = &generativelanguagepb.Content{
			Parts: []*generativelanguagepb.Part{textPart(req.System)},
		}
	}
	return pbReq
}

func textPart(text string) *generativelanguagepb.Part {
	return &generativelanguagepb.Part{
		Data: &generativelanguagepb.Part_Text{Text: text},
	}
}

// candidateText joins the text parts of the first candidate.
func candidateText(resp *generativelanguagepb.GenerateContentResponse) string {
	if len(resp.GetCandidates()) == 0 {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.GetCandidates()[0].GetContent().GetParts() {
		b.WriteString(part.GetText())
	}
	return b.String()
}

func (c *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.client.GenerateContent(ctx, c.request(req))
	if err != nil {
		return "", geminiError(ctx, err)
	}
	text := strings.TrimSpace(candidateText(resp))
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

func (c *geminiClient) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stream, err := c.client.StreamGenerateContent(ctx, c.request(req))
		if err != nil {
			yield("", geminiError(ctx, err))
			return
		}
		defer stream.CloseSend()

		for {
			resp, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", geminiError(ctx, err))
				return
			}
			if token := candidateText(resp); token != "" && !yield(token, nil) {
				return
			}
		}
	}
}

// geminiError prefers the context error so callers can classify cancellation.
func geminiError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("gemini: %w", err)
}
