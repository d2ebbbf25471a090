package feed

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"

	"backtest_go/internal/domain"
)

// WSFeed streams bars from a websocket gateway as JSON frames. It backs
// the live run mode; backtest runs never dial it.
type WSFeed struct {
	url  string
	conn *websocket.Conn
	log  *slog.Logger
}

// Dial connects to the gateway.
func Dial(ctx context.Context, url string, log *slog.Logger) (*WSFeed, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	log.Info("bar feed connected", slog.String("url", url))
	return &WSFeed{url: url, conn: conn, log: log}, nil
}

// Next blocks until the gateway delivers the next bar.
func (f *WSFeed) Next() (domain.Bar, error) {
	var bar domain.Bar
	if err := f.conn.ReadJSON(&bar); err != nil {
		return domain.Bar{}, err
	}
	return bar, nil
}

// Close tears the connection down.
func (f *WSFeed) Close() error {
	return f.conn.Close()
}
