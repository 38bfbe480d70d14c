package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/requestcontext"
)

// HTTPGenerator invokes the image generation backend over its REST API.
// Generation can take minutes, so the default timeout is generous.
type HTTPGenerator struct {
	baseURL string
	http    *http.Client
}

// GeneratorOption configures an HTTPGenerator.
type GeneratorOption func(*HTTPGenerator)

// WithGeneratorHTTPClient replaces the underlying HTTP client.
func WithGeneratorHTTPClient(hc *http.Client) GeneratorOption {
	return func(g *HTTPGenerator) {
		g.http = hc
	}
}

// NewHTTPGenerator constructs a generator client for the given base URL.
func NewHTTPGenerator(baseURL string, opts ...GeneratorOption) *HTTPGenerator {
	g := &HTTPGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

type generateBody struct {
	ToolID         string            `json:"toolId"`
	Prompt         string            `json:"prompt"`
	Model          string            `json:"model"`
	NumberOfImages int               `json:"numberOfImages"`
	InputImages    []string          `json:"inputImages,omitempty"`
	Params         map[string]string `json:"params,omitempty"`
}

type generateReply struct {
	Outputs []struct {
		URL         string `json:"url"`
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
		Data        []byte `json:"data"`
	} `json:"outputs"`
}

// Generate submits the request and waits for the produced images.
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (Result, error) {
	raw, err := json.Marshal(generateBody{
		ToolID:         string(req.ToolID),
		Prompt:         req.Prompt,
		Model:          req.Model,
		NumberOfImages: req.NumberOfImages,
		InputImages:    req.InputImages,
		Params:         req.Params,
	})
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode generation request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/generate", bytes.NewReader(raw))
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "build generation request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: generation backend: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return Result{}, fmt.Errorf("%w: generation backend: status %d", sentinel.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return Result{}, dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("generation backend: unexpected status %d", resp.StatusCode))
	}

	var reply generateReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "decode generation response")
	}

	result := Result{Outputs: make([]Output, len(reply.Outputs))}
	for i, out := range reply.Outputs {
		result.Outputs[i] = Output{
			URL:         out.URL,
			Name:        out.Name,
			ContentType: out.ContentType,
			Data:        out.Data,
		}
	}
	return result, nil
}
