package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const remoteTimeout = 5 * time.Second

// RemoteClient is a thin client over the remote catalog service. It shapes
// requests, normalizes responses and classifies errors. It never retries;
// whether to retry or fall back is the gateway's call.
type RemoteClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewRemoteClient(baseURL, token string) *RemoteClient {
	return &RemoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: remoteTimeout},
	}
}

func (c *RemoteClient) ListProducts(ctx context.Context, q Query) (Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.MinPriceCents > 0 {
		params.Set("min_price_cents", strconv.FormatInt(q.MinPriceCents, 10))
	}
	if q.MaxPriceCents > 0 {
		params.Set("max_price_cents", strconv.FormatInt(q.MaxPriceCents, 10))
	}
	if q.Featured != nil {
		params.Set("featured", strconv.FormatBool(*q.Featured))
	}
	if q.InStock != nil {
		params.Set("in_stock", strconv.FormatBool(*q.InStock))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	params.Set("sort_by", q.SortBy)
	params.Set("sort_order", q.SortOrder)

	var raw struct {
		Products   []Product   `json:"products"`
		Pagination *Pagination `json:"pagination"`
	}
	if err := c.do(ctx, http.MethodGet, "/products?"+params.Encode(), nil, &raw); err != nil {
		return Page{}, err
	}

	page := Page{Products: raw.Products}
	if page.Products == nil {
		page.Products = []Product{}
	}
	if raw.Pagination != nil {
		page.Pagination = *raw.Pagination
	} else {
		page.Pagination = Pagination{CurrentPage: 1, TotalPages: 1, TotalItems: len(page.Products)}
	}
	return page, nil
}

func (c *RemoteClient) Featured(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products/featured", nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (c *RemoteClient) GetProduct(ctx context.Context, id string) (Product, error) {
	var p Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *RemoteClient) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var products []Product
	path := "/products/search/" + url.PathEscape(query) + "?" + params.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func (c *RemoteClient) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, "/products/meta/categories", nil, &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (c *RemoteClient) PriceRange(ctx context.Context) (PriceRange, error) {
	var pr PriceRange
	if err := c.do(ctx, http.MethodGet, "/products/meta/price-range", nil, &pr); err != nil {
		return PriceRange{}, err
	}
	return pr, nil
}

func (c *RemoteClient) CreateProduct(ctx context.Context, in NewProduct) (Product, error) {
	var raw struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPost, "/admin/products", in, &raw); err != nil {
		return Product{}, err
	}
	return raw.Product, nil
}

func (c *RemoteClient) UpdateProduct(ctx context.Context, id string, u ProductUpdate) (Product, error) {
	var raw struct {
		Product Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodPut, "/admin/products/"+url.PathEscape(id), u, &raw); err != nil {
		return Product{}, err
	}
	return raw.Product, nil
}

func (c *RemoteClient) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/products/"+url.PathEscape(id), nil, nil)
}

type bulkRequest struct {
	Action     string         `json:"action"`
	ProductIDs []string       `json:"product_ids"`
	Updates    *ProductUpdate `json:"updates,omitempty"`
}

func (c *RemoteClient) BulkOperation(ctx context.Context, action string, ids []string, updates *ProductUpdate) error {
	body := bulkRequest{Action: action, ProductIDs: ids, Updates: updates}
	return c.do(ctx, http.MethodPost, "/admin/products/bulk", body, nil)
}

func (c *RemoteClient) Health(ctx context.Context) error {
	var raw struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodGet, "/health", nil, &raw)
}

func (c *RemoteClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		if out == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		// A success status with an undecodable body means the remote (or
		// something between us and it) is failing mid-response.
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrRemoteUnavailable, err)
		}
		return nil
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status=%d", ErrRemoteUnavailable, resp.StatusCode)
	default:
		return &ValidationError{Msg: readRemoteError(resp.Body, resp.StatusCode)}
	}
}

func readRemoteError(body io.Reader, status int) string {
	var raw struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<16)).Decode(&raw); err == nil && raw.Error != "" {
		return raw.Error
	}
	return fmt.Sprintf("remote rejected request (status=%d)", status)
}
