// Package zotero fetches record snapshots from a Zotero-compatible web
// API and applies merge commits back to it. It is the only place that
// knows the wire shape of items; everything past this boundary works with
// bib.Record values.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/refmend/refmend/pkg/bib"
	"github.com/refmend/refmend/pkg/errors"
	"github.com/refmend/refmend/pkg/logging"
)

const (
	// DefaultBaseURL is the public Zotero API endpoint.
	DefaultBaseURL = "https://api.zotero.org"

	apiKeyHeader     = "Zotero-API-Key"
	apiVersionHeader = "Zotero-API-Version"
	apiVersion       = "3"
	versionHeader    = "If-Unmodified-Since-Version"

	// Item pages are capped by the API.
	pageLimit = 100
)

// Config configures a Client.
type Config struct {
	BaseURL    string        // Defaults to DefaultBaseURL
	UserID     string        // Library owner
	APIKey     string        // Write access requires a key
	HTTPClient *http.Client  // Defaults to a 30s-timeout client
	Timeout    time.Duration // Used when HTTPClient is nil
}

// Client talks to one user library. It implements bib.Source and
// bib.CommitSink.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userID     string
	apiKey     string
}

// NewClient creates a Client for the configured library.
func NewClient(cfg Config) (*Client, error) {
	if cfg.UserID == "" {
		return nil, &errors.ConfigError{Component: "zotero", Message: "user ID is required"}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userID:     cfg.UserID,
		apiKey:     cfg.APIKey,
	}, nil
}

// item is the wire shape of one library item.
type item struct {
	Key     string         `json:"key"`
	Version int64          `json:"version"`
	Data    map[string]any `json:"data"`
}

type wireCreator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Name        string `json:"name,omitempty"`
}

type wireTag struct {
	Tag string `json:"tag"`
}

// Items fetches the full record snapshot, following pagination.
func (c *Client) Items(ctx context.Context) ([]bib.Record, error) {
	var records []bib.Record

	for start := 0; ; start += pageLimit {
		url := fmt.Sprintf("%s/users/%s/items?format=json&limit=%d&start=%d&itemType=-attachment", c.baseURL, c.userID, pageLimit, start)
		var page []item
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		for _, it := range page {
			records = append(records, recordFromItem(it))
		}
		if len(page) < pageLimit {
			break
		}
	}

	logging.Debug().Int("count", len(records)).Msg("fetched record snapshot")
	return records, nil
}

// UpdateRecord patches the record's data, conditional on version. The
// PATCH merges: stored data keys absent from the update survive. A 412
// response surfaces as a *errors.VersionConflictError so the caller can
// decide whether to refetch-and-retry or abandon. On success the record
// is refetched so the caller sees the merged server state.
func (c *Client) UpdateRecord(ctx context.Context, key string, version int64, fields map[string]string, creators []bib.Creator, tags []string) (bib.Record, error) {
	data := make(map[string]any, len(fields)+2)
	for name, value := range fields {
		data[name] = value
	}

	wireCreators := make([]wireCreator, 0, len(creators))
	for _, cr := range creators {
		wireCreators = append(wireCreators, wireCreator(cr))
	}
	data["creators"] = wireCreators

	wireTags := make([]wireTag, 0, len(tags))
	for _, tag := range tags {
		wireTags = append(wireTags, wireTag{Tag: tag})
	}
	data["tags"] = wireTags

	body, err := json.Marshal(data)
	if err != nil {
		return bib.Record{}, fmt.Errorf("encoding update for %s: %w", key, err)
	}

	url := fmt.Sprintf("%s/users/%s/items/%s", c.baseURL, c.userID, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return bib.Record{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)
	req.Header.Set(versionHeader, strconv.FormatInt(version, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return bib.Record{}, fmt.Errorf("updating record %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.checkStatus(resp, key, version); err != nil {
		return bib.Record{}, err
	}

	updated, err := c.getItem(ctx, key)
	if err != nil {
		// The PATCH applied; fall back to a local view of the record.
		logging.Warn().Err(err).Str("key", key).Msg("refetch after update failed")
		updated = bib.Record{Key: key, Version: version + 1, Fields: fields, Creators: creators, Tags: tags}
		if v := resp.Header.Get("Last-Modified-Version"); v != "" {
			if parsed, perr := strconv.ParseInt(v, 10, 64); perr == nil {
				updated.Version = parsed
			}
		}
	}
	return updated, nil
}

func (c *Client) getItem(ctx context.Context, key string) (bib.Record, error) {
	url := fmt.Sprintf("%s/users/%s/items/%s?format=json", c.baseURL, c.userID, key)
	var it item
	if err := c.getJSON(ctx, url, &it); err != nil {
		return bib.Record{}, err
	}
	return recordFromItem(it), nil
}

// DeleteRecord removes the record, conditional on version.
func (c *Client) DeleteRecord(ctx context.Context, key string, version int64) error {
	url := fmt.Sprintf("%s/users/%s/items/%s", c.baseURL, c.userID, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set(versionHeader, strconv.FormatInt(version, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting record %s: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return c.checkStatus(resp, key, version)
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &errors.APIError{
			Endpoint:   url,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set(apiVersionHeader, apiVersion)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}
}

func (c *Client) checkStatus(resp *http.Response, key string, version int64) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusPreconditionFailed:
		return &errors.VersionConflictError{Key: key, Version: version}
	case resp.StatusCode == http.StatusNotFound:
		return &errors.NotFoundError{Resource: "record", Key: key}
	case resp.StatusCode == http.StatusForbidden:
		return errors.ErrAPIKeyRequired
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &errors.APIError{
			Endpoint:   resp.Request.URL.Path,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}
}

// recordFromItem maps a wire item to a Record. String-valued data entries
// become fields; creators, tags, and bookkeeping keys are lifted out.
func recordFromItem(it item) bib.Record {
	rec := bib.Record{
		Key:     it.Key,
		Version: it.Version,
		Fields:  make(map[string]string),
	}

	for name, raw := range it.Data {
		switch name {
		case "key", "version", "relations", "collections":
			// bookkeeping, not fields
		case "itemType":
			rec.Type, _ = raw.(string)
		case "dateAdded":
			rec.DateAdded, _ = raw.(string)
		case "creators":
			rec.Creators = creatorsFromWire(raw)
		case "tags":
			rec.Tags = tagsFromWire(raw)
		default:
			if s, ok := raw.(string); ok {
				rec.Fields[name] = s
			}
		}
	}

	return rec
}

func creatorsFromWire(raw any) []bib.Creator {
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}
	creators := make([]bib.Creator, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		creator := bib.Creator{}
		creator.CreatorType, _ = obj["creatorType"].(string)
		creator.FirstName, _ = obj["firstName"].(string)
		creator.LastName, _ = obj["lastName"].(string)
		creator.Name, _ = obj["name"].(string)
		creators = append(creators, creator)
	}
	return creators
}

func tagsFromWire(raw any) []string {
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(entries))
	for _, entry := range entries {
		if obj, ok := entry.(map[string]any); ok {
			if tag, ok := obj["tag"].(string); ok && tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
