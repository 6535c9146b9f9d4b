package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
)

type ollamaClient struct {
	host        string
	model       string
	temperature float64
	client      *http.Client
}

type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) post(ctx context.Context, req Request, stream bool) (*http.Response, error) {
	payload := map[string]any{
		"model":  c.model,
		"system": req.System,
		"prompt": req.Prompt,
		"stream": stream,
		"options": map[string]any{
			"temperature": c.temperature,
		},
	}
	if req.JSON {
		payload["format"] = "json"
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, apiError("ollama", resp)
	}
	return resp, nil
}

func (c *ollamaClient) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := c.post(ctx, req, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed ollamaChunk
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %s", parsed.Error)
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return strings.TrimSpace(parsed.Response), nil
}

func (c *ollamaClient) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := c.post(ctx, req, true)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			yield("", err)
			return
		}
		defer resp.Body.Close()

		err = readLines(ctx, resp.Body, func(line string) (bool, error) {
			var chunk ollamaChunk
			if err := json.Unmarshal([]byte(line), &chunk); err != nil {
				return false, fmt.Errorf("ollama stream: %w", err)
			}
			if chunk.Error != "" {
				return false, fmt.Errorf("ollama: %s", chunk.Error)
			}
			if chunk.Response != "" && !yield(chunk.Response, nil) {
				return true, errStop
			}
			return chunk.Done, nil
		})
		if err == errStop {
			return
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			yield("", err)
		}
	}
}
