package queue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"embed-service/internal/embeddings"
)

// Request is the request/reply payload for embedding over the message bus.
type Request struct {
	ID    string   `json:"id,omitempty"`
	Texts []string `json:"texts"`
}

// Reply carries either embeddings or an error message.
type Reply struct {
	ID         string              `json:"id"`
	Embeddings []embeddings.Vector `json:"embeddings"`
	Error      string              `json:"error,omitempty"`
}

// Responder answers embedding requests until ctx is done.
type Responder interface {
	Serve(ctx context.Context) error
}

// process decodes one request, runs it through the embedder, and encodes the
// reply. It never fails: problems are reported in Reply.Error.
func process(ctx context.Context, log *slog.Logger, e embeddings.Embedder, data []byte) []byte {
	var req struct {
		ID    string    `json:"id"`
		Texts *[]string `json:"texts"`
	}
	reply := Reply{}
	if err := json.Unmarshal(data, &req); err != nil {
		reply.ID = uuid.NewString()
		reply.Error = "invalid payload: " + err.Error()
		return encodeReply(log, reply)
	}
	reply.ID = req.ID
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if req.Texts == nil {
		reply.Error = "texts is required"
		return encodeReply(log, reply)
	}

	vecs, err := e.Embed(ctx, *req.Texts)
	if err != nil {
		log.Error("embed request failed", "id", reply.ID, "texts", len(*req.Texts), "err", err)
		reply.Error = "failed to embed texts"
		return encodeReply(log, reply)
	}
	reply.Embeddings = vecs
	log.Debug("embed request served", "id", reply.ID, "texts", len(vecs))
	return encodeReply(log, reply)
}

func encodeReply(log *slog.Logger, reply Reply) []byte {
	body, err := json.Marshal(reply)
	if err != nil {
		log.Error("failed to encode reply", "id", reply.ID, "err", err)
		return []byte(`{"error":"internal error"}`)
	}
	return body
}
