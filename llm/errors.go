package llm

import "fmt"

// The generation error taxonomy. All three unwrap to an underlying cause
// where one exists; callers branch on type, not message text.

// NetworkError is a transport-level failure mid-request.
type NetworkError struct {
	Backend string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Backend, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponse is a 200 OK whose body could not be parsed or lacked the
// expected content field.
type MalformedResponse struct {
	Backend string
	Reason  string
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Backend, e.Reason)
}

// ProviderError is a structured error payload returned by the backend, such
// as an invalid API key or unknown model.
type ProviderError struct {
	Backend string
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: provider returned HTTP %d", e.Backend, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Backend, e.Message)
}
