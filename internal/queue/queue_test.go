package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"embed-service/internal/embeddings"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeReply(t *testing.T, body []byte) Reply {
	t.Helper()
	var r Reply
	require.NoError(t, json.Unmarshal(body, &r))
	return r
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		setup     func(*embeddings.MockEmbedder)
		wantID    string
		wantCount int
		wantError string
	}{
		{
			name:    "embeds texts and echoes id",
			payload: `{"id":"req-1","texts":["a","b"]}`,
			setup: func(e *embeddings.MockEmbedder) {
				e.On("Embed", mock.Anything, []string{"a", "b"}).
					Return([]embeddings.Vector{{1, 0}, {0, 1}}, nil).Once()
			},
			wantID:    "req-1",
			wantCount: 2,
		},
		{
			name:      "invalid JSON",
			payload:   `not json`,
			wantError: "invalid payload",
		},
		{
			name:      "non-string text",
			payload:   `{"texts":["a", 3]}`,
			wantError: "invalid payload",
		},
		{
			name:      "missing texts",
			payload:   `{"id":"req-2"}`,
			wantID:    "req-2",
			wantError: "texts is required",
		},
		{
			name:    "embedder failure",
			payload: `{"id":"req-3","texts":["a"]}`,
			setup: func(e *embeddings.MockEmbedder) {
				e.On("Embed", mock.Anything, []string{"a"}).Return(nil, errors.New("boom")).Once()
			},
			wantID:    "req-3",
			wantError: "failed to embed texts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := new(embeddings.MockEmbedder)
			if tt.setup != nil {
				tt.setup(e)
			}

			r := decodeReply(t, process(context.Background(), discardLogger(), e, []byte(tt.payload)))

			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, r.ID)
			} else {
				_, err := uuid.Parse(r.ID)
				assert.NoError(t, err, "generated id should be a UUID")
			}
			if tt.wantError != "" {
				assert.Contains(t, r.Error, tt.wantError)
				assert.Empty(t, r.Embeddings)
			} else {
				assert.Empty(t, r.Error)
				assert.Len(t, r.Embeddings, tt.wantCount)
			}
			e.AssertExpectations(t)
		})
	}
}

func TestProcessEmptyTexts(t *testing.T) {
	m := embeddings.NewModel(new(embeddings.MockEmbedder), 384, false)

	body := process(context.Background(), discardLogger(), m, []byte(`{"texts":[]}`))
	r := decodeReply(t, body)

	assert.Empty(t, r.Error)
	assert.Empty(t, r.Embeddings)
}
