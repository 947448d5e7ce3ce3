package ingest

import (
	"fmt"
	"unicode/utf8"
)

// previewLimit caps the raw-body excerpt carried by MalformedResponseError.
const previewLimit = 150

// UnreachableAPIError reports that the API root did not answer the
// reachability check. It is fatal before any discovery or fetch work.
type UnreachableAPIError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableAPIError) Error() string {
	return fmt.Sprintf("API is unreachable at %s: %v", e.BaseURL, e.Err)
}

func (e *UnreachableAPIError) Unwrap() error { return e.Err }

// FetchError reports a failed page request. The first failure aborts the
// whole endpoint fetch.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedResponseError reports a page body that could not be
// interpreted as a sequence of records. Preview holds the start of the
// raw body for diagnostics, truncated to previewLimit characters. This
// guards against APIs that answer HTML error pages with a 200 status.
type MalformedResponseError struct {
	Source  string
	Preview string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: expected a JSON array, got: %s", e.Source, e.Preview)
}

func newMalformedResponseError(source string, body []byte) *MalformedResponseError {
	preview := string(body)
	if len(preview) > previewLimit {
		// Back up to a rune boundary so the preview stays valid UTF-8.
		cut := previewLimit
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut]
	}
	return &MalformedResponseError{Source: source, Preview: preview}
}
