package engine

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// Client is the Anthropic API surface sessions talk through. It carries the
// resolved model name and a usage counter shared across all calls.
type Client struct {
	api     anthropic.Client
	model   anthropic.Model
	tracker *TokenTracker
}

// ClientConfig selects the API path and model for a Client.
type ClientConfig struct {
	// Model to use; defaults to Sonnet 4 when empty.
	Model anthropic.Model
	// APIKey for the direct API. Falls back to ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes calls through AWS Bedrock instead.
	UseAWSBedrock bool
	// AWSRegion for Bedrock, e.g. "us-west-2".
	AWSRegion string
	// AWSProfile optionally names a shared-config profile.
	AWSProfile string
}

// NewClient builds a client for either the direct API or AWS Bedrock.
func NewClient(cfg ClientConfig) (*Client, error) {
	opts, err := requestOptions(cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = bedrockProfile(model)
	}

	return &Client{
		api:     anthropic.NewClient(opts...),
		model:   model,
		tracker: &TokenTracker{},
	}, nil
}

func requestOptions(cfg ClientConfig) ([]option.RequestOption, error) {
	if cfg.UseAWSBedrock {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		return []option.RequestOption{bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...)}, nil
	}

	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("no API key: set anthropic.api_key in the config or ANTHROPIC_API_KEY in the environment")
	}
	return []option.RequestOption{option.WithAPIKey(key)}, nil
}

// bedrockProfile rewrites a model name into the cross-region inference
// profile Bedrock expects, us.anthropic.<model>-v1:0. Names already in
// profile form pass through.
func bedrockProfile(model anthropic.Model) anthropic.Model {
	s := string(model)
	if strings.HasPrefix(s, "us.anthropic.") {
		return model
	}
	return anthropic.Model("us.anthropic." + s + "-v1:0")
}

// Model returns the resolved model name.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// Tracker returns the shared usage counter.
func (c *Client) Tracker() *TokenTracker {
	return c.tracker
}

// Complete sends a conversation to the API and returns the concatenated
// text of the response, recording token usage on the tracker.
func (c *Client) Complete(ctx context.Context, system string, messages []anthropic.MessageParam) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 8192,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}

	c.tracker.Add(msg.Usage.InputTokens, msg.Usage.OutputTokens)

	var sb strings.Builder
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(variant.Text)
		}
	}
	return sb.String(), nil
}

// Per-million-token prices for Sonnet-class models, in USD. Approximate;
// used for reporting only.
const (
	inputPricePerMTok  = 3.0
	outputPricePerMTok = 15.0
)

// TokenTracker accumulates token usage across API calls. Safe for
// concurrent use by multiple sessions.
type TokenTracker struct {
	in    atomic.Int64
	out   atomic.Int64
	calls atomic.Int64
}

// Add records the usage of one API call.
func (t *TokenTracker) Add(input, output int64) {
	t.in.Add(input)
	t.out.Add(output)
	t.calls.Add(1)
}

// Total returns the accumulated input and output token counts.
func (t *TokenTracker) Total() (input, output int64) {
	return t.in.Load(), t.out.Load()
}

// Calls returns the number of API calls recorded.
func (t *TokenTracker) Calls() int64 {
	return t.calls.Load()
}

// Reset zeroes all counters.
func (t *TokenTracker) Reset() {
	t.in.Store(0)
	t.out.Store(0)
	t.calls.Store(0)
}

// Cost estimates the accumulated spend in USD.
func (t *TokenTracker) Cost() float64 {
	return float64(t.in.Load())/1_000_000*inputPricePerMTok +
		float64(t.out.Load())/1_000_000*outputPricePerMTok
}
