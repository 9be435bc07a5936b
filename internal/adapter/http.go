package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-record-sync/internal/config"
	"github.com/MKhiriev/go-record-sync/internal/logger"
	"github.com/MKhiriev/go-record-sync/internal/utils"
	"github.com/MKhiriev/go-record-sync/models"
)

type httpTransport struct {
	client  *utils.HTTPClient
	baseURL string
	token   string

	logger *logger.Logger
}

// NewHTTPTransport constructs the resty implementation of [Transport].
// It normalises and validates the base URL from cfg.HTTPAddress, configures
// the underlying HTTP client with the resolved base URL and request timeout,
// and stores cfg.Token when set.
//
// Returns an error wrapping [ErrInvalidAddress] if cfg.HTTPAddress is empty or
// cannot be parsed as a valid URL.
func NewHTTPTransport(cfg config.ClientAdapter, logger *logger.Logger) (Transport, error) {
	baseURL, err := normalizeBaseURL(cfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	client := utils.NewHTTPClient(logger)
	client.SetBaseURL(baseURL)
	if cfg.RequestTimeout > 0 {
		client.SetTimeout(cfg.RequestTimeout)
	}

	t := &httpTransport{client: client, baseURL: baseURL, logger: logger}
	t.SetToken(cfg.Token)
	return t, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [Transport]. It stores token (whitespace-trimmed) for
// use in the Authorization header of all subsequent requests.
func (h *httpTransport) SetToken(token string) {
	h.token = strings.TrimSpace(token)
}

// Token implements [Transport].
func (h *httpTransport) Token() string {
	return h.token
}

// Request implements [Transport].
func (h *httpTransport) Request(ctx context.Context, req models.Request) (models.Response, error) {
	target, err := h.resolveURL(req)
	if err != nil {
		return models.Response{}, err
	}

	method := strings.ToUpper(string(req.Method))
	if method == "" {
		method = string(models.MethodGet)
	}

	r := h.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)
	if token := h.Token(); token != "" {
		r.SetHeader("Authorization", "Bearer "+token)
	}
	if id, ok := utils.GetRequestIDFromContext(ctx); ok {
		r.SetHeader("X-Request-ID", id)
	}

	switch models.HTTPMethod(method) {
	case models.MethodGet, models.MethodDelete:
		r.SetQueryParamsFromValues(queryValues(req.Params))
	default:
		if req.Params != nil {
			r.SetHeader("Content-Type", "application/json").SetBody(req.Params)
		}
	}

	resp, err := r.Execute(method, target)
	if err != nil {
		h.logger.Err(err).Str("func", "httpTransport.Request").
			Str("method", method).Str("url", target).Msg("request failed")
		return models.Response{}, fmt.Errorf("%s %s request: %w", method, req.Path, err)
	}

	out := models.Response{StatusCode: resp.StatusCode(), Header: resp.Header()}
	body, decodeErr := decodeBody(resp.Body())

	if err = mapHTTPError(resp); err != nil {
		if decodeErr == nil {
			out.Body = body
		}
		return out, err
	}
	if decodeErr != nil {
		return out, fmt.Errorf("%w: %s %s: %w", ErrInvalidResponse, method, req.Path, decodeErr)
	}

	out.Body = body
	return out, nil
}

func (h *httpTransport) resolveURL(req models.Request) (string, error) {
	path := req.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if req.BaseURL == "" {
		return h.baseURL + path, nil
	}

	base, err := normalizeBaseURL(req.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return base + path, nil
}

func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return body, nil
}

// queryValues flattens params into a query string. Slices become repeated
// keys, nil values are dropped, nested objects are sent as JSON.
func queryValues(params map[string]any) url.Values {
	values := make(url.Values, len(params))

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
		case []any:
			for _, item := range v {
				values.Add(k, queryString(item))
			}
		case []string:
			for _, item := range v {
				values.Add(k, item)
			}
		default:
			values.Set(k, queryString(v))
		}
	}
	return values
}

func queryString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(raw)
}
