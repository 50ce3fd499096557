// Package apisvc is the console's transport to the school REST backend.
// Every response is normalized into decoded data or a typed core error.
package apisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/user"
)

const (
	HeaderRequestID = "X-Request-ID"
	defaultTimeout  = 15 * time.Second
)

type Client struct {
	baseURL string
	rest    *rest.Client
	logger  core.Logger

	mu    sync.RWMutex
	token string
}

// NewClient builds a client from the API section of conf.
func NewClient(conf *core.Config, logger core.Logger) *Client {
	timeout := conf.API.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := NewClientWithHTTP(conf.API.BaseURL, &http.Client{Timeout: timeout}, logger)
	c.SetToken(conf.API.Token)
	return c
}

func NewClientWithHTTP(baseURL string, hc *http.Client, logger core.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: hc},
		logger:  logger,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = strings.TrimSpace(token)
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Principal is the identity carried by the current token (anonymous without one).
func (c *Client) Principal() (user.Principal, error) {
	tok := c.Token()
	if tok == "" {
		return user.Principal{}, nil
	}
	return user.PrincipalFromToken(tok)
}

type request struct {
	method  rest.Method
	path    string
	query   map[string]string
	body    []byte
	headers map[string]string
}

// send issues req and returns the raw response of a 2xx, or a typed error.
func (c *Client) send(ctx context.Context, req request) (*rest.Response, error) {
	op := string(req.method) + " " + req.path

	headers := map[string]string{
		HeaderRequestID: uuid.New().String(),
		"Accept":        "application/json",
	}
	if tok := c.Token(); tok != "" {
		headers["Authorization"] = "Bearer " + tok
	}
	for k, v := range req.headers {
		headers[k] = v
	}

	res, err := c.rest.SendWithContext(ctx, rest.Request{
		Method:      req.method,
		BaseURL:     c.baseURL + "/" + strings.TrimLeft(req.path, "/"),
		Headers:     headers,
		QueryParams: req.query,
		Body:        req.body,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		c.log("request failed", op, headers[HeaderRequestID], err)
		return nil, &core.TransportError{Op: op, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		apiErr := parseError(res)
		c.log("request refused", op, headers[HeaderRequestID], apiErr)
		return nil, apiErr
	}
	return res, nil
}

func (c *Client) log(msg, op, reqID string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Warn(msg, err, map[string]interface{}{"op": op, "request_id": reqID})
}

// parseError reads the backend's {message} (or echo's {error}) from a non-2xx response.
func parseError(res *rest.Response) *core.APIError {
	apiErr := &core.APIError{StatusCode: res.StatusCode}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(res.Body), &payload); err == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	res, err := c.send(ctx, request{method: rest.Get, path: path, query: query})
	if err != nil {
		return err
	}
	return decode(res, out)
}

func (c *Client) sendJSON(ctx context.Context, method rest.Method, path string, payload, out interface{}) error {
	req := request{method: method, path: path}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encoding payload")
		}
		req.body = body
		req.headers = map[string]string{"Content-Type": "application/json"}
	}
	res, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(res, out)
}

func decode(res *rest.Response, out interface{}) error {
	body := bytes.TrimSpace([]byte(res.Body))
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decoding %d response", res.StatusCode)
	}
	return nil
}

// Login exchanges credentials for a token and keeps it for later requests.
func (c *Client) Login(ctx context.Context, creds user.LoginCredentials) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.sendJSON(ctx, rest.Post, "users/login", creds, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", errors.New("login response carried no token")
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// Me fetches the profile shown in every screen header.
func (c *Client) Me(ctx context.Context) (user.Profile, error) {
	var p user.Profile
	err := c.getJSON(ctx, "users/me", nil, &p)
	return p, err
}

// UnreadCount fetches the number of unread notifications for the header badge.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.getJSON(ctx, "notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// MarkRead flags a notification as read.
func (c *Client) MarkRead(ctx context.Context, id int) error {
	return c.sendJSON(ctx, rest.Post, "notifications/"+strconv.Itoa(id)+"/read", nil, nil)
}
