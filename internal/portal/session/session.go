package session

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"schoolkr/internal/region"
)

// Session is a portal session token and the instant it stops being accepted. Tokens are only
// accepted by the host of the region that issued them.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Region    region.ID
}

// Valid reports whether the session can be used against id at now.
func (s Session) Valid(now time.Time, id region.ID) bool {
	return s.Token != "" && s.Region == id && now.Before(s.ExpiresAt)
}

// Cookie renders the value of the Cookie header carrying the session.
func (s Session) Cookie() string {
	return CookieName + "=" + s.Token
}

const CookieName = "JSESSIONID"

var sessionIdRegex = regexp.MustCompile(`JSESSIONID=(.*?);`)

// AcquisitionError is returned when a bootstrap response did not carry a usable session cookie.
type AcquisitionError struct {
	Region region.ID
	Reason string
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("acquire session for %s: %s", e.Region, e.Reason)
}

// extractToken reads the session id out of the Set-Cookie headers of a bootstrap response.
func extractToken(id region.ID, header http.Header) (string, error) {
	cookies := header.Values("Set-Cookie")
	if len(cookies) == 0 {
		return "", &AcquisitionError{Region: id, Reason: "response has no Set-Cookie header"}
	}
	groups := sessionIdRegex.FindStringSubmatch(strings.Join(cookies, ""))
	if len(groups) < 2 {
		return "", &AcquisitionError{Region: id, Reason: "Set-Cookie header has no JSESSIONID"}
	}
	if groups[1] == "" {
		return "", &AcquisitionError{Region: id, Reason: "JSESSIONID is empty"}
	}
	return groups[1], nil
}
