package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockHTTPClient records requests and returns mocked responses or transport errors
type MockHTTPClient struct {
	mu sync.Mutex
	// Map of URL to mock response
	MockResponses map[string]MockResponse
	// Map of URL to transport error returned instead of a response
	MockErrors map[string]error
	// Recorded requests
	RecordedRequests []RequestRecord
	// Gate, when set, holds every request until it is closed or receives
	Gate chan struct{}
}

// MockResponse represents a mocked HTTP response
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// RequestRecord records a request made to the mock client
type RequestRecord struct {
	Method  string
	URL     string
	Headers map[string][]string
	Body    string
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient() *MockHTTPClient {
	return &MockHTTPClient{
		MockResponses:    make(map[string]MockResponse),
		MockErrors:       make(map[string]error),
		RecordedRequests: make([]RequestRecord, 0),
	}
}

// Do records the request and returns a mocked response
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	record := RequestRecord{
		Method:  req.Method,
		URL:     req.URL.String(),
		Headers: req.Header,
	}
	if req.Body != nil {
		bodyBytes, _ := io.ReadAll(req.Body)
		record.Body = string(bodyBytes)
		// Restore the request body for subsequent reads
		req.Body = io.NopCloser(strings.NewReader(record.Body))
	}

	m.mu.Lock()
	m.RecordedRequests = append(m.RecordedRequests, record)
	gate := m.Gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, exists := m.MockErrors[record.URL]; exists {
		return nil, err
	}

	if response, exists := m.MockResponses[record.URL]; exists {
		statusCode := response.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}

		mockResp := &http.Response{
			StatusCode: statusCode,
			Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(response.Body)),
		}
		for key, value := range response.Headers {
			mockResp.Header.Set(key, value)
		}
		return mockResp, nil
	}

	// Default response - 404 Not Found
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     fmt.Sprintf("%d %s", http.StatusNotFound, http.StatusText(http.StatusNotFound)),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader("Not Found")),
	}, nil
}

// SetMockResponse sets a mock response for a specific URL
func (m *MockHTTPClient) SetMockResponse(url string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MockResponses[url] = response
}

// SetJSONMockResponse sets a mock JSON response for a specific URL
func (m *MockHTTPClient) SetJSONMockResponse(url string, statusCode int, body interface{}) error {
	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	m.SetMockResponse(url, MockResponse{
		StatusCode: statusCode,
		Body:       string(jsonBytes),
		Headers:    map[string]string{"Content-Type": "application/json"},
	})
	return nil
}

// SetMockError makes requests to url fail with a transport error
func (m *MockHTTPClient) SetMockError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MockErrors[url] = err
}

// GetRecordedRequests returns a copy of all recorded requests
func (m *MockHTTPClient) GetRecordedRequests() []RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestRecord, len(m.RecordedRequests))
	copy(out, m.RecordedRequests)
	return out
}

// GetRequestCount returns the number of requests made to a specific URL
func (m *MockHTTPClient) GetRequestCount(method, url string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, record := range m.RecordedRequests {
		if record.Method == method && record.URL == url {
			count++
		}
	}
	return count
}

// GetRequestBody returns the body of the last request to a specific URL
func (m *MockHTTPClient) GetRequestBody(method, url string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.RecordedRequests) - 1; i >= 0; i-- {
		record := m.RecordedRequests[i]
		if record.Method == method && record.URL == url {
			return record.Body
		}
	}
	return ""
}
