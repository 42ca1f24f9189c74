package terminology

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Endpoints of the ANS multi-terminology server (SMT).
const (
	tokenEndpoint      = "/ans/sso/auth/realms/ANS/protocol/openid-connect/token"
	listEndpoint       = "/api/terminologies/list"
	codeSystemEndpoint = "/fhir/CodeSystem"
	valueSetEndpoint   = "/fhir/ValueSet"
)

// Terminology is one entry of the server's terminology catalog. The catalog
// schema is loosely specified upstream, so only the stable keys are typed.
type Terminology struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	URI     string `json:"uri,omitempty"`
}

// Client talks to the French national terminology server.
type Client struct {
	BaseURI    string
	HTTPClient *http.Client
	token      string
	log        zerolog.Logger
}

func NewClient(baseURI string, log zerolog.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout: 60 * time.Second,
	}
	return &Client{
		BaseURI:    baseURI,
		HTTPClient: retryClient.StandardClient(),
		log:        log,
	}
}

func (c *Client) SetToken(token string) {
	if token == "" {
		return
	}
	c.token = token
}

// Authenticate fetches a client-credentials token. The public endpoints work
// without one, so the caller may continue on error.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"client_id":  {"user-api"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURI+tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}
	c.SetToken(body.AccessToken)
	return nil
}

// ListTerminologies returns the terminology catalog, both typed and raw so
// callers can persist the full document.
func (c *Client) ListTerminologies(ctx context.Context) ([]Terminology, json.RawMessage, error) {
	raw, err := c.get(ctx, listEndpoint)
	if err != nil {
		return nil, nil, err
	}
	var list []Terminology
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, nil, fmt.Errorf("failed to decode terminology list: %w", err)
	}
	return list, raw, nil
}

// FetchCodeSystem returns the FHIR CodeSystem resource with the given ID.
func (c *Client) FetchCodeSystem(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, codeSystemEndpoint+"/"+url.PathEscape(id))
}

// FetchValueSet returns the FHIR ValueSet resource with the given ID.
func (c *Client) FetchValueSet(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, valueSetEndpoint+"/"+url.PathEscape(id))
}

// DownloadAll saves the terminology catalog and every listed CodeSystem to
// outputDir. Individual CodeSystem failures are logged and skipped.
func (c *Client) DownloadAll(ctx context.Context, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := c.Authenticate(ctx); err != nil {
		c.log.Warn().Err(err).Msg("Authentication failed, continuing with public endpoints")
	}

	list, raw, err := c.ListTerminologies(ctx)
	if err != nil {
		return err
	}
	if err := writePretty(filepath.Join(outputDir, "terminologies.json"), raw); err != nil {
		return err
	}
	c.log.Info().Int("count", len(list)).Msg("Fetched terminology catalog")

	for _, term := range list {
		if term.ID == "" {
			continue
		}
		cs, err := c.FetchCodeSystem(ctx, term.ID)
		if err != nil {
			c.log.Warn().Err(err).Str("id", term.ID).Msg("Failed to fetch CodeSystem")
			continue
		}
		name := fmt.Sprintf("codesystem_%s.json", term.ID)
		if err := writePretty(filepath.Join(outputDir, name), cs); err != nil {
			return err
		}
		c.log.Debug().Str("id", term.ID).Msg("Saved CodeSystem")
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURI+endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func writePretty(path string, raw json.RawMessage) error {
	var buf any
	indented := raw
	if err := json.Unmarshal(raw, &buf); err == nil {
		if data, err := json.MarshalIndent(buf, "", "  "); err == nil {
			indented = data
		}
	}
	if err := os.WriteFile(path, indented, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
