package speech

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 30 * time.Second
	defaultDialRetries      = 3
)

// retryDialer opens websocket connections, retrying transport failures.
// A handshake the server rejected with a 4xx status is not retried.
type retryDialer struct {
	ws      *websocket.Dialer
	retries int
	backoff time.Duration
}

func newRetryDialer(timeout time.Duration) *retryDialer {
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	return &retryDialer{
		ws:      &websocket.Dialer{HandshakeTimeout: timeout},
		retries: defaultDialRetries,
		backoff: time.Second,
	}
}

func (d *retryDialer) dial(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
	var lastErr error

	for i := 0; i < d.retries; i++ {
		conn, resp, err := d.ws.DialContext(ctx, url, header)
		if err == nil {
			if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
				log.Printf("[speech] connected to %s with logid %s", url, logid)
			}
			return conn, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, fmt.Errorf("websocket handshake rejected with status %d: %w", resp.StatusCode, err)
		}

		delay := time.Duration(i+1) * d.backoff
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d retries, last error: %w", d.retries, lastErr)
}
