package novelsrc

import "context"

// Response is the result of fetching a URL.
type Response struct {
	// StatusCode is the final HTTP status code.
	StatusCode int

	// URL is the final URL after redirects were followed.
	URL string

	// Body is the decoded response body.
	Body string
}

// OK reports whether the response has a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Fetcher retrieves pages over the network.
// Non-2xx responses are returned as a Response, not an error; transport
// failures are returned as ETRANSPORT errors.
type Fetcher interface {
	// Fetch performs a GET request, following redirects.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases resources held by the fetcher.
	Close() error
}
