// Package inventory talks to the product service: it reads the catalog feed
// and applies absolute and delta stock mutations.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MikeMC777/kiosko-snacks/internal/product"
)

var ErrNotFound = errors.New("product not found")

type Client struct {
	HTTP     *http.Client
	BaseURL  string
	AdminKey string
}

func NewClient(baseURL, adminKey string) *Client {
	return &Client{
		HTTP:     &http.Client{Timeout: 5 * time.Second},
		BaseURL:  baseURL,
		AdminKey: adminKey,
	}
}

// FetchFeed returns every active product in feed shape.
func (c *Client) FetchFeed(ctx context.Context) ([]product.FeedRecord, error) {
	var out []product.FeedRecord
	if err := c.do(ctx, http.MethodGet, "/feed", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchProduct(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetStock records an absolute stock count.
func (c *Client) SetStock(ctx context.Context, id string, qty int) (*product.Product, error) {
	var p product.Product
	body := product.SetStockRequest{Stock: &qty}
	if err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(id)+"/stock", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AdjustStock adds delta (which may be negative) to the stock.
func (c *Client) AdjustStock(ctx context.Context, id string, delta int, reason string) (*product.Product, error) {
	var p product.Product
	body := product.AdjustStockRequest{Delta: delta, Reason: reason}
	if err := c.do(ctx, http.MethodPost, "/products/"+url.PathEscape(id)+"/stock/adjust", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminKey != "" {
		req.Header.Set("X-Admin-Key", c.AdminKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case res.StatusCode >= 300:
		return fmt.Errorf("%s %s: %s", method, path, res.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
