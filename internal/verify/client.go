package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("aquita/verify")

// Client calls the cédula registry over HTTP. One attempt per invocation; no
// caching and no backoff — rate limiting is surfaced to the caller instead.
type Client struct {
	baseURL string
	appID   string
	token   string
	http    *http.Client
}

// NewClient builds a registry client. appID and token are deployment secrets.
func NewClient(baseURL, appID, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// registryResponse covers both shapes the registry produces: an error
// indicator, or a data payload with the official name fields.
type registryResponse struct {
	Error string `json:"error"`
	Data  *struct {
		FirstName string `json:"primer_nombre"`
		LastName  string `json:"primer_apellido"`
	} `json:"data"`
}

func (c *Client) Verify(ctx context.Context, nationality, number string) (Result, error) {
	ctx, span := tracer.Start(ctx, "verify.lookup")
	defer span.End()
	span.SetAttributes(attribute.String("nationality", nationality))

	query := url.Values{}
	query.Set("app_id", c.appID)
	query.Set("token", c.token)
	query.Set("nacionalidad", nationality)
	query.Set("cedula", number)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1?"+query.Encode(), nil)
	if err != nil {
		return Result{}, NewError(CategoryTransportFailure, "build request", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return Result{}, NewError(CategoryTransportFailure, "registry unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, NewError(CategoryTransportFailure, "read response", err)
	}

	var parsed registryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, NewError(CategoryMalformedResponse, "undecodable response", err)
	}

	if parsed.Error != "" {
		span.SetAttributes(attribute.String("registry.error", parsed.Error))
		// The registry reports rate limiting only through the error text.
		if strings.Contains(strings.ToLower(parsed.Error), "rate limit") {
			return Result{}, NewError(CategoryRateLimited, parsed.Error, nil)
		}
		return Result{}, NewError(CategoryNotFound, parsed.Error, nil)
	}

	if parsed.Data == nil || parsed.Data.FirstName == "" || parsed.Data.LastName == "" {
		return Result{}, NewError(CategoryMalformedResponse,
			fmt.Sprintf("missing name fields (status %d)", resp.StatusCode), nil)
	}

	return Result{
		FirstName: parsed.Data.FirstName,
		LastName:  parsed.Data.LastName,
	}, nil
}
