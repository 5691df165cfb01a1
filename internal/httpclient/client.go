package httpclient

import (
	"net/http"
	"time"
)

// HTTPClient abstracts HTTP operations for testing
type HTTPClient interface {
	// Do executes an HTTP request and returns a response
	Do(req *http.Request) (*http.Response, error)
}

// RealHTTPClient is the production implementation backed by http.Client
type RealHTTPClient struct {
	client *http.Client
}

// NewRealHTTPClient creates a new real HTTP client with the given timeout
func NewRealHTTPClient(timeout time.Duration) *RealHTTPClient {
	return &RealHTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Do executes an HTTP request and returns a response
func (r *RealHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return r.client.Do(req)
}
