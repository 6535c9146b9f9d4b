package llm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/grpc"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultOllamaModel = "ministral-3:latest"
	defaultGeminiModel = "gemini-2.5-flash"
	defaultOllamaHost  = "http://localhost:11434"
	defaultTemperature = 0.5
)

const defaultLLMHTTPTimeout = 3 * time.Minute

// ErrMissingCredential is returned before any network call when a provider
// that needs an API key has none.
var ErrMissingCredential = errors.New("API key is missing")

// Config describes how to build an LLM client.
type Config struct {
	Provider    string
	Model       string
	Endpoint    string
	APIKey      string
	Temperature float64
	HTTPClient  *http.Client
	// DialContext, when set, carries gRPC connections (Gemini) through a
	// proxy. HTTP providers use HTTPClient instead.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Request is one prompt sent to the generative service.
type Request struct {
	System string
	Prompt string
	// JSON asks the provider to constrain output to a JSON object.
	JSON bool
}

// Client is the contract the pipelines depend on: complete a prompt, or
// stream the completion as a lazy, finite sequence of text chunks. The
// stream stops when ctx is cancelled and cannot be restarted; an error is
// yielded once as the final element.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
	Name() string
}

// New builds a client for cfg.Provider (OpenAI when empty).
func New(cfg Config) (Client, error) {
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = defaultTemperature
	}
	httpClient := pickHTTPClient(cfg.HTTPClient)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("openai: %w", ErrMissingCredential)
		}
		return newOpenAIClient(cfg.APIKey, firstNonEmpty(cfg.Model, defaultOpenAIModel), cfg.Endpoint, temperature, httpClient), nil
	case ProviderOllama:
		return &ollamaClient{
			host:        strings.TrimRight(firstNonEmpty(cfg.Endpoint, defaultOllamaHost), "/"),
			model:       firstNonEmpty(cfg.Model, defaultOllamaModel),
			temperature: temperature,
			client:      httpClient,
		}, nil
	case ProviderGemini:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, fmt.Errorf("gemini: %w", ErrMissingCredential)
		}
		opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			opts = append(opts, option.WithEndpoint(endpoint))
		}
		if dial := cfg.DialContext; dial != nil {
			opts = append(opts, option.WithGRPCDialOption(grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
				return dial(ctx, "tcp", addr)
			})))
		}
		return newGeminiClient(context.Background(), firstNonEmpty(cfg.Model, defaultGeminiModel), temperature, opts...)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Generations routinely take longer than a minute; cancellation comes from the caller's context.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// readLines feeds every non-empty line of body to fn until fn reports done,
// the body ends, or ctx is cancelled.
func readLines(ctx context.Context, body io.Reader, fn func(line string) (done bool, err error)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		done, err := fn(line)
		if err != nil || done {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return scanner.Err()
}

// errStop signals that the consumer stopped iterating.
var errStop = errors.New("stream consumer stopped")

func apiError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("%s API error: %s (%s)", provider, resp.Status, strings.TrimSpace(string(body)))
}
