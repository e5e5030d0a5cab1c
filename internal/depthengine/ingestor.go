package depthengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Ingestor is one of the N redundant websocket readers of §4.G. Each
// connection parses frames into Updates and feeds them to the shared
// Buffer; duplicates and gaps across connections are reconciled entirely by
// the Buffer's sequence-based acceptance logic, so ingestors do not
// coordinate with each other directly.
type Ingestor struct {
	id     string
	url    string
	buffer *Buffer
	logger zerolog.Logger
}

// NewIngestor builds one depth-stream connection worker.
func NewIngestor(url string, buffer *Buffer, logger zerolog.Logger) *Ingestor {
	id := uuid.NewString()
	return &Ingestor{
		id:     id,
		url:    url,
		buffer: buffer,
		logger: logger.With().Str("component", "ingestor").Str("conn_id", id).Logger(),
	}
}

// Run dials the depth stream and reads frames until ctx is cancelled or the
// socket errors. On a socket error this connection terminates; the caller
// (Engine) is responsible for the other N-1 connections and recovery
// continuing unaffected, per §4.G.
func (ig *Ingestor) Run(ctx context.Context) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, ig.url, nil)
	if err != nil {
		ig.logger.Error().Err(err).Msg("failed to dial depth stream")
		return
	}
	defer conn.Close()

	conn.SetPingHandler(func(data string) error {
		ig.logger.Debug().Msg("received ping, replying with pong")
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second))
		if err != nil {
			ig.logger.Error().Err(err).Msg("failed to send pong")
		}
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		ig.readLoop(conn)
	}()

	select {
	case <-ctx.Done():
		return
	case <-done:
		return
	}
}

func (ig *Ingestor) readLoop(conn *websocket.Conn) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			ig.logger.Error().Err(err).Msg("socket error, terminating connection")
			return
		}

		update, err := ParseUpdate(frame)
		if err != nil {
			ig.logger.Debug().Err(err).Msg("dropping unparseable frame")
			continue
		}
		if update == nil {
			// not an update: a control frame or an out-of-scope collaborator
			// message that happened to arrive on this stream.
			continue
		}

		ig.logger.Debug().Int64("first_id", update.FirstID).Int64("last_id", update.LastID).Msg("ingested update")
		ig.buffer.Ingest(update)
	}
}

// streamURL builds the depth-stream websocket URL for a symbol, mirroring
// the teacher's lowercase-stream-name convention in pkg/exchange/binance.
func streamURL(baseURL, symbol string) string {
	return fmt.Sprintf("%s/%s@depth", baseURL, strings.ToLower(symbol))
}
