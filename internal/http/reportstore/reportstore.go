package reportstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/google/go-querystring/query"
	"github.com/lucsky/cuid"
	"github.com/pkg/errors"
)

const (
	defaultTimeout = 15 * time.Second
	requestSource  = "civic-circle-api"

	HeaderTotalCount   = "X-Total-Count"
	HeaderTotalPages   = "X-Total-Pages"
	HeaderServiceToken = "X-Service-Token"
)

// ValidationError is returned before any request is made when a report
// fails local validation. Fields are keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid report: " + strings.Join(parts, "; ")
}

// UpstreamError is a non-2xx answer other than 404 from the Report Store.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("report store responded %d: %s", e.StatusCode, e.Body)
}

type ListOptions struct {
	Page    *int   `url:"page,omitempty"`
	Size    int    `url:"size,omitempty"`
	SortBy  string `url:"sortBy,omitempty"`
	SortDir string `url:"sortDir,omitempty"`
}

type searchParams struct {
	Keyword string `url:"keyword"`
}

// Client talks to the Report Store HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithServiceToken sends token in the X-Service-Token header of every
// request.
func WithServiceToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns reports newest first. When opts.Page is set the store pages
// the result and reports totals in headers.
func (c *Client) List(ctx context.Context, opts ListOptions) (model.ReportPage, error) {
	q, err := query.Values(opts)
	if err != nil {
		return model.ReportPage{}, errors.Wrap(err, "encoding list options")
	}

	var reports []model.Report
	header, err := c.do(ctx, http.MethodGet, "/reports", q, nil, &reports)
	if err != nil {
		return model.ReportPage{}, err
	}

	page := model.ReportPage{Reports: nonNil(reports), TotalCount: int64(len(reports)), TotalPages: 1}
	if opts.Page != nil {
		if n, err := strconv.ParseInt(header.Get(HeaderTotalCount), 10, 64); err == nil {
			page.TotalCount = n
		}
		if n, err := strconv.Atoi(header.Get(HeaderTotalPages)); err == nil {
			page.TotalPages = n
		}
	}
	return page, nil
}

// All returns every report in the store.
func (c *Client) All(ctx context.Context) ([]model.Report, error) {
	page, err := c.List(ctx, ListOptions{})
	if err != nil {
		return nil, err
	}
	return page.Reports, nil
}

func (c *Client) Get(ctx context.Context, id int64) (model.Report, error) {
	var report model.Report
	_, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/reports/%d", id), nil, nil, &report)
	return report, err
}

// Create validates the request locally and only then submits it.
func (c *Client) Create(ctx context.Context, req model.CreateReportRequest) (model.Report, error) {
	if err := util.ValidateStruct(req); err != nil {
		if fields := util.FieldErrors(err); fields != nil {
			return model.Report{}, &ValidationError{Fields: fields}
		}
		return model.Report{}, errors.Wrap(err, "validating report")
	}

	var report model.Report
	_, err := c.do(ctx, http.MethodPost, "/reports", nil, req.WithDefaults(), &report)
	return report, err
}

func (c *Client) UpdateStatus(ctx context.Context, id int64, status model.Status) (model.Report, error) {
	if !status.IsValid() {
		return model.Report{}, &ValidationError{Fields: map[string]string{"status": "is not a valid status"}}
	}

	var report model.Report
	body := model.UpdateStatusRequest{Status: status}
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/reports/%d/status", id), nil, body, &report)
	return report, err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/reports/%d", id), nil, nil, nil)
	return err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	_, err := c.do(ctx, http.MethodGet, "/reports/categories", nil, nil, &categories)
	return categories, err
}

func (c *Client) Search(ctx context.Context, keyword string) ([]model.Report, error) {
	q, err := query.Values(searchParams{Keyword: keyword})
	if err != nil {
		return nil, errors.Wrap(err, "encoding search")
	}
	var reports []model.Report
	_, err = c.do(ctx, http.MethodGet, "/reports/search", q, nil, &reports)
	return nonNil(reports), err
}

func (c *Client) ByStatus(ctx context.Context, status model.Status) ([]model.Report, error) {
	var reports []model.Report
	_, err := c.do(ctx, http.MethodGet, "/reports/status/"+url.PathEscape(string(status)), nil, nil, &reports)
	return nonNil(reports), err
}

func (c *Client) ByCategory(ctx context.Context, category string) ([]model.Report, error) {
	var reports []model.Report
	_, err := c.do(ctx, http.MethodGet, "/reports/category/"+url.PathEscape(category), nil, nil, &reports)
	return nonNil(reports), err
}

// Recent returns reports created in the last 30 days.
func (c *Client) Recent(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	_, err := c.do(ctx, http.MethodGet, "/reports/recent", nil, nil, &reports)
	return nonNil(reports), err
}

func (c *Client) CountByStatus(ctx context.Context, status model.Status) (int64, error) {
	var n int64
	_, err := c.do(ctx, http.MethodGet, "/reports/count/status/"+url.PathEscape(string(status)), nil, nil, &n)
	return n, err
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out interface{}) (http.Header, error) {
	endpoint := c.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, errors.Wrap(err, "building report store request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(HeaderServiceToken, c.token)
	}
	setTracingHeaders(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "report store %s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return resp.Header, model.ErrReportNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return resp.Header, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.Header, errors.Wrapf(err, "decoding report store %s %s", method, path)
	}
	return resp.Header, nil
}

func setTracingHeaders(ctx context.Context, req *http.Request) {
	tc := tracing.FromContext(ctx)
	if tc.RequestID == "" {
		tc.RequestID = cuid.New()
	}
	if tc.RequestSource == "" {
		tc.RequestSource = requestSource
	}
	req.Header.Set(values.HeaderRequestID, tc.RequestID)
	req.Header.Set(values.HeaderRequestSource, tc.RequestSource)
}

func nonNil(reports []model.Report) []model.Report {
	if reports == nil {
		return []model.Report{}
	}
	return reports
}
