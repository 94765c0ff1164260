// package services contains HTTP clients for Audiobookshelf and MediaTracker
package services

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// LibraryItem is the subset of an Audiobookshelf library item needed for resolution.
//
// Metadata may be nested under media (current servers) or sit at the top level (older servers and podcasts).
type LibraryItem struct {
	ID        string        `json:"id"`
	LibraryID string        `json:"libraryId"`
	MediaType string        `json:"mediaType"`
	Media     *itemMedia    `json:"media"`
	Metadata  *ItemMetadata `json:"metadata"`
}

type itemMedia struct {
	Metadata *ItemMetadata `json:"metadata"`
}

type itemAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ItemMetadata holds descriptive fields and the ASIN.
type ItemMetadata struct {
	Title      string       `json:"title"`
	AuthorName string       `json:"authorName"`
	Authors    []itemAuthor `json:"authors"`
	ASIN       string       `json:"asin"`
	ISBN       string       `json:"isbn"`
}

// metadata returns the first metadata block present, preferring the media envelope.
func (i *LibraryItem) metadata() *ItemMetadata {
	if i.Media != nil && i.Media.Metadata != nil {
		return i.Media.Metadata
	}
	return i.Metadata
}

// ExternalID returns the ASIN, or "" when the item has none.
func (i *LibraryItem) ExternalID() string {
	if i.Media != nil && i.Media.Metadata != nil {
		if asin := strings.TrimSpace(i.Media.Metadata.ASIN); asin != "" {
			return asin
		}
	}
	if i.Metadata != nil {
		return strings.TrimSpace(i.Metadata.ASIN)
	}
	return ""
}

// Title returns the item title, if known.
func (i *LibraryItem) Title() string {
	if md := i.metadata(); md != nil {
		return md.Title
	}
	return ""
}

// Author returns authorName, falling back to the joined author list.
func (i *LibraryItem) Author() string {
	md := i.metadata()
	if md == nil {
		return ""
	}
	if md.AuthorName != "" {
		return md.AuthorName
	}
	names := make([]string, 0, len(md.Authors))
	for _, a := range md.Authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ProgressRequest is the body of a MediaTracker progress upsert.
type ProgressRequest struct {
	Progress  float64     `json:"progress"`
	ID        ExternalIDs `json:"id"`
	MediaType string      `json:"mediaType"`
	Timestamp int64       `json:"timestamp"`
}

// ExternalIDs identifies the media item on the MediaTracker side.
type ExternalIDs struct {
	AudibleID string `json:"audibleId"`
}

// BearerToken wraps a raw token string as an [oauth2.Token].
func BearerToken(token string) *oauth2.Token {
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
}

// authorizedClient returns a copy of base that sends token as a bearer credential.
func authorizedClient(base *http.Client, token *oauth2.Token) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(token),
			Base:   base.Transport,
		},
		Timeout: base.Timeout,
	}
}

// joinURL appends path to base without doubling slashes.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// statusError converts a non-2xx response into an error carrying a snippet of the body.
func statusError(resp *http.Response, sentinel error) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		return fmt.Errorf("%w: status %d", sentinel, resp.StatusCode)
	}
	return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, detail)
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
