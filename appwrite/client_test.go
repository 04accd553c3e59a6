package appwrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{Endpoint: srv.URL + "/v1", ProjectID: "proj", APIKey: "key"})
	require.NoError(t, err)
	return c
}

func TestNewRequiresEndpoint(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Endpoint: "not a url"})
	assert.Error(t, err)
}

func TestDownload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/storage/buckets/uploads/files/f1/download", r.URL.Path)
		assert.Equal(t, "proj", r.Header.Get("X-Appwrite-Project"))
		assert.Equal(t, "key", r.Header.Get("X-Appwrite-Key"))
		_, _ = w.Write([]byte("payload"))
	})

	data, err := c.Download(context.Background(), "uploads", "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestDownloadNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"File not found","code":404,"type":"storage_file_not_found"}`))
	})

	_, err := c.Download(context.Background(), "uploads", "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "File not found", apiErr.Message)
}

func TestDownloadTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.Download(context.Background(), "b", "f")
	assert.Error(t, err)
}

func TestFindDocumentByTitle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/db/collections/symbols/documents", r.URL.Path)
		queries := r.URL.Query()["queries[]"]
		require.Len(t, queries, 2)

		var eq queryJSON
		require.NoError(t, json.Unmarshal([]byte(queries[0]), &eq))
		assert.Equal(t, "equal", eq.Method)
		assert.Equal(t, "title", eq.Attribute)
		assert.Equal(t, []interface{}{"Hand Wash"}, eq.Values)
		assert.JSONEq(t, `{"method":"limit","values":[1]}`, queries[1])

		_, _ = w.Write([]byte(`{"total":2,"documents":[
			{"$id":"a","title":"Hand Wash","shortDescription":"first","category":"washing"},
			{"$id":"b","title":"Hand Wash","shortDescription":"second"}
		]}`))
	})

	doc, err := c.FindDocumentByTitle(context.Background(), "db", "symbols", "Hand Wash")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "a", doc.ID)
	assert.Equal(t, "first", doc.ShortDescription)
	assert.Equal(t, "", doc.Dos)
}

func TestFindDocumentByTitleNoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total":0,"documents":[]}`))
	})

	doc, err := c.FindDocumentByTitle(context.Background(), "db", "symbols", "Unknown")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestQueries(t *testing.T) {
	assert.JSONEq(t, `{"method":"equal","attribute":"title","values":["A","B"]}`, Equal("title", "A", "B").String())
	assert.JSONEq(t, `{"method":"limit","values":[25]}`, Limit(25).String())
}
