package userdata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"nathanbeddoewebdev/oshost/internal/params"
)

// HTTPResolver fetches userdata from the URL in the descriptor.
type HTTPResolver struct {
	client *http.Client
	logger *slog.Logger
}

// NewHTTPResolver returns a resolver for descriptors of type "http". A nil
// client uses http.DefaultClient.
func NewHTTPResolver(client *http.Client, logger *slog.Logger) *HTTPResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &HTTPResolver{client: client, logger: logger}
}

func (h *HTTPResolver) Type() string { return "http" }

// Resolve performs a synchronous GET and returns the body verbatim.
func (h *HTTPResolver) Resolve(ctx context.Context, descriptor params.Bag) (string, error) {
	url, err := params.String(descriptor, "url", "nova_config.instance.userdata when using type 'http'")
	if err != nil {
		return "", err
	}

	h.logger.Info("using userdata from URL", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("userdata: invalid url %q: %w", url, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("userdata: failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("userdata: failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("userdata: fetching %s returned status %d", url, resp.StatusCode)
	}

	return string(body), nil
}

// Default returns the registry of built-in resolvers.
func Default(client *http.Client, logger *slog.Logger) *Registry {
	return NewRegistry(NewHTTPResolver(client, logger))
}
