package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	hrhttp "github.com/willibrandon/hrref/http"
)

// maxRemoteBody bounds a single category response.
const maxRemoteBody = 64 << 20

// RemoteStore reads records from an HTTP endpoint serving
// GET {base}/records/{category} as {"items":[{"data":{...}}]}.
type RemoteStore struct {
	client  *hrhttp.Client
	baseURL string
}

// queryResult is the wire shape of a category response.
type queryResult struct {
	Items []Record `json:"items"`
}

// NewRemoteStore creates a remote backend. A nil client uses the default
// hrhttp configuration.
func NewRemoteStore(baseURL string, client *hrhttp.Client) (*RemoteStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if client == nil {
		client = hrhttp.NewClient(nil)
	}
	return &RemoteStore{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Query implements Client.
func (rs *RemoteStore) Query(ctx context.Context, q Query) ([]Record, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	resp, err := rs.client.Get(ctx, rs.baseURL+"/records/"+url.PathEscape(string(q.Category)))
	if err != nil {
		return nil, NewStoreError("remote", "query", q.Category, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewStoreError("remote", "query", q.Category, fmt.Errorf("unexpected status %s", resp.Status))
	}

	var result queryResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxRemoteBody)).Decode(&result); err != nil {
		return nil, NewStoreError("remote", "decode", q.Category, err)
	}
	for i := range result.Items {
		result.Items[i].Category = q.Category
	}
	return result.Items, nil
}

// Ping implements Pinger against {base}/healthz.
func (rs *RemoteStore) Ping(ctx context.Context) error {
	resp, err := rs.client.Get(ctx, rs.baseURL+"/healthz")
	if err != nil {
		return NewStoreError("remote", "ping", "", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewStoreError("remote", "ping", "", fmt.Errorf("unexpected status %s", resp.Status))
	}
	return nil
}

// Close implements Client.
func (rs *RemoteStore) Close() error {
	return rs.client.Close()
}

// EncodeRecords writes records in the remote wire shape.
func EncodeRecords(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return json.NewEncoder(w).Encode(queryResult{Items: records})
}
