package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
)

// ServiceClient is the external collaborator conformist drives requests
// through (§4.8, explicitly out of scope as a re-specified subsystem in
// spec.md §1 but implemented here as the default, swappable transport).
type ServiceClient interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// HTTPClient is the default ServiceClient: a thin wrapper over net/http
// against a fixed base URL.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPClient builds an HTTPClient against baseURL using http.DefaultClient
// unless client is supplied.
func NewHTTPClient(baseURL string, client *http.Client) *HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPClient{BaseURL: baseURL, Client: client}
}

func (c *HTTPClient) Send(ctx context.Context, req *Request) (*Response, error) {
	u, err := url.Parse(c.BaseURL + req.Path)
	if err != nil {
		return nil, err
	}
	if req.Query != nil {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.MediaType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", req.MediaType)
	}

	httpResp, err := c.Client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     map[string][]string(httpResp.Header),
		Body:       data,
	}, nil
}
