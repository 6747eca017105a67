package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/tally/internal/common"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "valid config", config: Config{APIKey: "test-key"}},
		{name: "missing API key", config: Config{}, wantErr: true},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "gpt-4o",
				Temperature: 0.5,
				MaxTokens:   200,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrMissingConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func openAIServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error": "nope"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
}

func TestOpenAIClient_Classify(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		status       int
		wantCategory string
		wantErr      error
		retryable    bool
	}{
		{
			name:         "successful classification",
			status:       http.StatusOK,
			content:      `{"category": "Food", "confidence": 0.9}`,
			wantCategory: "Food",
		},
		{
			name:         "markdown wrapped",
			status:       http.StatusOK,
			content:      "```json\n{\"category\": \"Transport\", \"confidence\": 0.7}\n```",
			wantCategory: "Transport",
		},
		{
			name:    "missing confidence",
			status:  http.StatusOK,
			content: `{"category": "Food"}`,
			wantErr: common.ErrContractViolation,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			wantErr:   common.ErrRateLimit,
			retryable: true,
		},
		{
			name:      "server error",
			status:    http.StatusBadGateway,
			retryable: true,
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := openAIServer(t, tt.status, tt.content)
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			got, err := client.Classify(context.Background(), "prompt")
			if tt.status != http.StatusOK || tt.wantErr != nil {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				if tt.status != http.StatusOK {
					assert.Equal(t, tt.retryable, common.IsRetryable(err))
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, got.Category)
		})
	}
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), "prompt")
	assert.ErrorIs(t, err, common.ErrContractViolation)
}
