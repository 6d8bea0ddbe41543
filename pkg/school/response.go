package school

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"schoolkr/internal/components/htmlutil"
	"schoolkr/internal/portal"
)

const statusError = "error"

type resultStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// envelope is the shape shared by every portal json response.
type envelope[T any] struct {
	Result    resultStatus `json:"result"`
	ResultSVO T            `json:"resultSVO"`
}

func looksLikeHtml(res portal.RawResponse) bool {
	if strings.Contains(res.Header.Get("content-type"), "text/html") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(res.Body), []byte("<"))
}

// htmlMessage describes an html page served in place of a json response, usually a
// maintenance or error page.
func htmlMessage(res portal.RawResponse) string {
	summary, err := htmlutil.Summary(res.Body)
	if err != nil || summary == "" {
		return "portal responded with an html page"
	}
	return summary
}

// decode interprets a raw response as an envelope, anything that isn't a successful
// envelope becomes a *PortalError.
func decode[T any](res portal.RawResponse) (T, error) {
	var out envelope[T]

	if !res.OK() {
		message := http.StatusText(res.Status)
		if looksLikeHtml(res) {
			message = htmlMessage(res)
		}
		return out.ResultSVO, &PortalError{Status: res.Status, Message: message}
	}

	err := json.Unmarshal(res.Body, &out)
	if err != nil {
		if looksLikeHtml(res) {
			return out.ResultSVO, &PortalError{Status: res.Status, Message: htmlMessage(res)}
		}
		return out.ResultSVO, fmt.Errorf("decode response: %w", err)
	}

	if out.Result.Status == statusError {
		return out.ResultSVO, &PortalError{Status: res.Status, Message: out.Result.Message}
	}
	return out.ResultSVO, nil
}
