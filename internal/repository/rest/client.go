// Package rest implements the repositories against a PostgREST-style managed
// data service. Filters are expressed as query parameters
// (name=ilike.*term*, category_id=eq.id, order=created_at.desc).
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/httpclient"
)

const serviceName = "data-service"

// Client issues table requests against the data service.
type Client struct {
	doer    httpclient.Doer
	baseURL string
}

// NewClient creates a client for the data service rooted at baseURL, for
// example https://project.example.co/rest/v1. Credentials are expected as
// default headers of doer.
func NewClient(doer httpclient.Doer, baseURL string) *Client {
	return &Client{doer: doer, baseURL: strings.TrimRight(baseURL, "/")}
}

// NewStore returns the repositories backed by c.
func NewStore(c *Client) repository.Store {
	return repository.Store{
		Categories: &CategoryRepository{c: c},
		Products:   &ProductRepository{c: c},
		Carts:      &CartRepository{c: c},
		CartItems:  &CartItemRepository{c: c},
		Orders:     &OrderRepository{c: c},
		Users:      &UserRepository{c: c},
	}
}

// Ping reads one category to verify the data service answers.
func (c *Client) Ping(ctx context.Context) error {
	var rows []json.RawMessage
	return c.get(ctx, "categories", url.Values{"select": {"id"}, "limit": {"1"}}, &rows)
}

type requestOptions struct {
	single         bool
	representation bool
}

func (c *Client) get(ctx context.Context, table string, q url.Values, dst any) error {
	return c.do(ctx, http.MethodGet, table, q, nil, dst, requestOptions{})
}

// getOne reads exactly one row; no row yields a NOT_FOUND AppError.
func (c *Client) getOne(ctx context.Context, table string, q url.Values, dst any) error {
	return c.do(ctx, http.MethodGet, table, q, nil, dst, requestOptions{single: true})
}

func (c *Client) insert(ctx context.Context, table string, body, dst any) error {
	return c.do(ctx, http.MethodPost, table, nil, body, dst, requestOptions{representation: dst != nil})
}

func (c *Client) patch(ctx context.Context, table string, q url.Values, body, dst any) error {
	return c.do(ctx, http.MethodPatch, table, q, body, dst, requestOptions{representation: dst != nil})
}

func (c *Client) remove(ctx context.Context, table string, q url.Values, dst any) error {
	return c.do(ctx, http.MethodDelete, table, q, nil, dst, requestOptions{representation: dst != nil})
}

func (c *Client) do(ctx context.Context, method, table string, q url.Values, body, dst any, opts requestOptions) error {
	endpoint := c.baseURL + "/" + table
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", table, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create %s %s request: %w", method, table, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	if opts.representation {
		req.Header.Set("Prefer", "return=representation")
	} else if method != http.MethodGet {
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s %s: %w", serviceName, table, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if dst == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", table, err)
	}
	return nil
}

func eq(v string) string { return "eq." + v }

// ilikeContains builds a case-insensitive substring pattern. PostgREST uses
// * as the wildcard in like filters, so literal asterisks are dropped. % and _
// are passed through and still match as LIKE wildcards on the server.
func ilikeContains(term string) string {
	return "ilike.*" + strings.ReplaceAll(term, "*", "") + "*"
}
