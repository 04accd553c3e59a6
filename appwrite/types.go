package appwrite

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Query is a serialized query string accepted by the documents API.
type Query string

func (q Query) String() string {
	return string(q)
}

type queryJSON struct {
	Method    string        `json:"method"`
	Attribute string        `json:"attribute,omitempty"`
	Values    []interface{} `json:"values,omitempty"`
}

func newQuery(method, attribute string, values ...interface{}) Query {
	b, err := json.Marshal(queryJSON{Method: method, Attribute: attribute, Values: values})
	if err != nil {
		// Values are strings and ints only.
		panic(err)
	}
	return Query(b)
}

// Equal matches documents whose attribute equals any of values.
func Equal(attribute string, values ...string) Query {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return newQuery("equal", attribute, vs...)
}

// Limit caps the number of documents returned.
func Limit(n int) Query {
	return newQuery("limit", "", n)
}

// Document is a care-symbol record. Attributes absent from the stored
// document decode as empty strings.
type Document struct {
	ID               string `json:"$id"`
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	Dos              string `json:"dos"`
	Donts            string `json:"donts"`
	Image            string `json:"image"`
	Category         string `json:"category"`
}

// DocumentList is one page of a documents query.
type DocumentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int    `json:"code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("appwrite: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("appwrite: HTTP %d: %s", e.StatusCode, e.Message)
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
