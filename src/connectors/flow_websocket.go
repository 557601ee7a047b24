package connectors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"qppf/src/model"
)

const (
	wsReconnectBase = 2 * time.Second
	wsReconnectMax  = 60 * time.Second
	wsReadDeadline  = 90 * time.Second
)

// FlowWebsocket streams options-flow alerts from the provider's websocket
// feed into an AlertBuffer, reconnecting with exponential backoff until the
// context is canceled.
type FlowWebsocket struct {
	url    string
	symbol string
	buffer *AlertBuffer
}

func NewFlowWebsocket(url, symbol string, buffer *AlertBuffer) *FlowWebsocket {
	return &FlowWebsocket{url: url, symbol: symbol, buffer: buffer}
}

// Run blocks until ctx is done. Connection failures are logged and retried;
// they never escape as errors because the scoring loop degrades to a
// neutral signal on an empty buffer anyway.
func (f *FlowWebsocket) Run(ctx context.Context) {
	backoff := wsReconnectBase

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := f.consume(ctx); err != nil {
			logger.WithError(err).
				WithField("url", f.url).
				Warn("flow websocket disconnected, will reconnect")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > wsReconnectMax {
			backoff = wsReconnectMax
		}
	}
}

func (f *FlowWebsocket) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger.WithField("url", f.url).Info("flow websocket connected")

	// subscribe to the symbol's alert stream
	sub := map[string]string{"action": "subscribe", "symbol": f.symbol}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(wsReadDeadline)); err != nil {
			return err
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var alert model.FlowAlert
		if err := json.Unmarshal(raw, &alert); err != nil {
			logger.WithError(err).Debug("dropping malformed flow alert")
			continue
		}
		if alert.Timestamp.IsZero() {
			alert.Timestamp = time.Now()
		}

		f.buffer.Add(alert)
	}
}
