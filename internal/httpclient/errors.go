package httpclient

import "fmt"

// UpstreamError carries the status code and raw body of a non-2xx backend
// reply. Adapters map the status onto a failure kind so the engine knows
// whether to advance the fallback chain.
type UpstreamError struct {
	StatusCode int
	Body       []byte
	URL        string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("backend replied %d from %s", e.StatusCode, e.URL)
}
