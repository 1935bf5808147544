package bitrix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/rest/1/token", 128)
	require.NoError(t, err)
	return c
}

func TestAddItemRequestShape(t *testing.T) {
	var (
		gotPath string
		gotBody addItemRequest
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"result": {"item": {"id": 55}}}`))
	})

	id, err := c.AddItem(context.Background(), map[string]string{
		"TITLE":   "Заявка из Telegram от @alice",
		"UF_DESC": "что-то сломалось",
	})
	require.NoError(t, err)

	assert.Equal(t, "55", id)
	assert.Equal(t, "/rest/1/token/crm.item.add.json", gotPath)
	assert.Equal(t, 128, gotBody.EntityTypeID)
	assert.Equal(t, "что-то сломалось", gotBody.Fields["UF_DESC"])
}

func TestAddItemBareResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": 77}`))
	})

	id, err := c.AddItem(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "77", id)
}

func TestAddItemStringResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": "88"}`))
	})

	id, err := c.AddItem(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "88", id)
}

func TestAddItemResultWithoutID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": {"item": {}}}`))
	})

	id, err := c.AddItem(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", id)
}

func TestAddItemHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	})

	_, err := c.AddItem(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestAddItemAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "QUERY_LIMIT_EXCEEDED", "error_description": "too many requests"}`))
	})

	_, err := c.AddItem(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUERY_LIMIT_EXCEEDED")
}

func TestAddItemMalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>not json</html>`))
	})

	_, err := c.AddItem(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestAddItemTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"result": 1}`))
	})
	WithTimeout(20 * time.Millisecond)(c)

	_, err := c.AddItem(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", 1)
	assert.Error(t, err)

	_, err = NewClient("https://portal.example/rest/1/token", 0)
	assert.Error(t, err)

	c, err := NewClient("https://portal.example/rest/1/token", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example/rest/1/token/", c.webhookURL)
}
