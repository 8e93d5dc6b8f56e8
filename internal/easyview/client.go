// Package easyview is a client for the Medtrum EasyView follower API.
package easyview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
	"time"

	"gluco_watch/internal/errs"
	"gluco_watch/internal/jsonval"
	"gluco_watch/internal/models"
	"gluco_watch/internal/window"
)

const (
	DefaultBaseURL = "https://easyview.medtrum.eu"
	DefaultAppTag  = "v=3.0.2(15);n=eyvw"
	DefaultTimeout = 30 * time.Second

	loginPath          = "/v3/api/v2.0/login"
	statusPathTemplate = "/api/v2.1/monitor/%s/status"

	maxBodyBytes = 16 << 20
)

// identityFields are the login response fields that may carry the monitor uid, in priority order.
var identityFields = []string{"monitor_uid", "uid"}

// Config configures a Client.
type Config struct {
	BaseURL     string
	Credentials models.Credentials
	// MonitorUID, when set, is used as identity instead of the login response field.
	MonitorUID string
	AppTag     string
	Timeout    time.Duration
}

// Client owns one EasyView session. It is not safe for concurrent use; the
// poller drives it from a single goroutine and replaces it on re-setup.
type Client struct {
	cfg      Config
	http     *http.Client
	identity string
	now      func() time.Time
}

// New builds an unauthenticated client with an empty cookie jar.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.AppTag == "" {
		cfg.AppTag = DefaultAppTag
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Credentials.UserType == "" {
		cfg.Credentials.UserType = "P"
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Jar: jar, Timeout: cfg.Timeout},
		now:  time.Now,
	}, nil
}

// Identity is the monitor uid learned at login, empty before.
func (c *Client) Identity() string { return c.identity }

// Authenticated reports whether Login has succeeded.
func (c *Client) Authenticated() bool { return c.identity != "" }

type loginRequest struct {
	UserName string `json:"user_name"`
	UserType string `json:"user_type"`
	Password string `json:"password"`
}

// Login posts the credentials and records the identity. Session cookies are
// kept in the client's jar. Failures are not retried here.
func (c *Client) Login(ctx context.Context) error {
	const op = "login"

	body, err := json.Marshal(loginRequest{
		UserName: c.cfg.Credentials.Username,
		UserType: c.cfg.Credentials.UserType,
		Password: c.cfg.Credentials.Password,
	})
	if err != nil {
		return fmt.Errorf("encode login body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	c.setLoginHeaders(req.Header)

	raw, err := c.do(op, req)
	if err != nil {
		return err
	}

	if c.cfg.MonitorUID != "" {
		c.identity = c.cfg.MonitorUID
		return nil
	}

	payload, err := jsonval.Parse(raw)
	if err != nil {
		return &errs.ProtocolError{Op: op, Reason: "response is not JSON", Err: err}
	}
	id, ok := identityFrom(payload)
	if !ok {
		fields := payload.Keys()
		sort.Strings(fields)
		return &errs.ProtocolError{Op: op, Reason: "no identity field (" + strings.Join(identityFields, ", ") + ")", Fields: fields}
	}
	c.identity = id
	return nil
}

// FetchStatus reads the monitor status for the window ending at the next local midnight.
func (c *Client) FetchStatus(ctx context.Context, tzOffsetHours, windowHours int) (jsonval.Value, error) {
	const op = "status"

	if !c.Authenticated() {
		return jsonval.Value{}, &errs.PreconditionError{Op: op, Required: "successful login"}
	}
	token, err := window.Token(c.now(), tzOffsetHours, windowHours)
	if err != nil {
		return jsonval.Value{}, fmt.Errorf("build window: %w", err)
	}

	url := c.cfg.BaseURL + fmt.Sprintf(statusPathTemplate, c.identity) + "?param=" + token
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return jsonval.Value{}, fmt.Errorf("build status request: %w", err)
	}
	c.setStatusHeaders(req.Header)

	raw, err := c.do(op, req)
	if err != nil {
		return jsonval.Value{}, err
	}
	payload, err := jsonval.Parse(raw)
	if err != nil {
		return jsonval.Value{}, &errs.ProtocolError{Op: op, Reason: "response is not JSON", Err: err}
	}
	return payload, nil
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(op string, req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &errs.HTTPError{Op: op, Status: resp.StatusCode}
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &errs.TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	return raw, nil
}

func (c *Client) setLoginHeaders(h http.Header) {
	h.Set("Accept", "application/json")
	h.Set("Content-Type", "application/json")
	h.Set("Apptag", c.cfg.AppTag)
	h.Set("Referer", c.cfg.BaseURL+"/v3/")
}

func (c *Client) setStatusHeaders(h http.Header) {
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "cs-CZ,cs;q=0.9")
	h.Set("Apptag", c.cfg.AppTag)
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Referer", c.cfg.BaseURL+"/v3/")
}

// identityFrom accepts string or numeric identity fields.
func identityFrom(payload jsonval.Value) (string, bool) {
	for _, field := range identityFields {
		v, ok := payload.Get(field)
		if !ok {
			continue
		}
		switch v.Kind() {
		case jsonval.String:
			if v.Str() != "" {
				return v.Str(), true
			}
		case jsonval.Int:
			return fmt.Sprintf("%d", v.Int()), true
		case jsonval.Float:
			b, err := v.MarshalJSON()
			if err == nil {
				return string(b), true
			}
		}
	}
	return "", false
}
