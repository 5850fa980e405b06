package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAdAccountID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare id gets prefix", "12345", "act_12345"},
		{"prefixed id is unchanged", "act_12345", "act_12345"},
		{"normalization is idempotent", NormalizeAdAccountID("12345"), "act_12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeAdAccountID(tt.input))
		})
	}
}

func TestGraphClientPostForm(t *testing.T) {
	var gotPath string
	var gotParams url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotParams = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123"}`))
	}))
	defer server.Close()

	client := NewGraphClientWithBase(server.URL)
	resp, err := client.PostForm(context.Background(), "act_1/campaigns", url.Values{
		"name": {"Test Campaign"},
	})

	assert.NoError(t, err)
	assert.Equal(t, "/"+DefaultGraphVersion+"/act_1/campaigns", gotPath)
	assert.Equal(t, "Test Campaign", gotParams.Get("name"))
	assert.Equal(t, "123", stringField(resp, "id"))
}

func TestGraphClientErrorExtraction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","code":190}}`))
	}))
	defer server.Close()

	client := NewGraphClientWithBase(server.URL)
	_, err := client.Get(context.Background(), "me", nil)

	assert.Error(t, err)
	ge, ok := err.(*GraphError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, ge.StatusCode)
	assert.Equal(t, 190, ge.Code)
	assert.Equal(t, "Invalid OAuth access token.", ge.Message)
}

func TestGraphClientNonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("Bad Gateway"))
	}))
	defer server.Close()

	client := NewGraphClientWithBase(server.URL)
	_, err := client.Get(context.Background(), "me", nil)

	assert.Error(t, err)
	ge, ok := err.(*GraphError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, ge.StatusCode)
	assert.Equal(t, "Bad Gateway", ge.Message)
}
