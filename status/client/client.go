package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	fspath "path"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/andydunstall/meshcast/broadcast"
	"github.com/andydunstall/meshcast/pkg/status"
)

// Client queries the status API of a node admin server.
type Client struct {
	httpClient *http.Client

	url *url.URL
}

func NewClient(url *url.URL, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		url: url,
	}
}

// BroadcastStatus returns the latest snapshot of the broadcast node.
func (c *Client) BroadcastStatus() (*broadcast.Snapshot, error) {
	r, err := c.request("/status/broadcast")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var snapshot broadcast.Snapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &snapshot, nil
}

// BroadcastMessages returns the values known to the broadcast node.
func (c *Client) BroadcastMessages() ([]uint64, error) {
	r, err := c.request("/status/broadcast/messages")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var messages []uint64
	if err := json.NewDecoder(r).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return messages, nil
}

// WatchBroadcast streams broadcast node snapshots to fn as the node state
// changes, until the context is cancelled, the connection fails or fn returns
// an error.
func (c *Client) WatchBroadcast(
	ctx context.Context,
	fn func(snapshot *broadcast.Snapshot) error,
) error {
	url := new(url.URL)
	*url = *c.url

	switch url.Scheme {
	case "https":
		url.Scheme = "wss"
	default:
		url.Scheme = "ws"
	}
	url.Path = fspath.Join(url.Path, "/status/broadcast/watch")

	dialer := &websocket.Dialer{
		HandshakeTimeout: c.httpClient.Timeout,
	}
	wsConn, resp, err := dialer.DialContext(ctx, url.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return &status.ErrorInfo{
				StatusCode: resp.StatusCode,
				Message:    statusMessage(resp.StatusCode),
			}
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer wsConn.Close()

	// Close the connection to interrupt reading when the context is
	// cancelled.
	stopCh := make(chan struct{})
	defer close(stopCh)
	go func() {
		select {
		case <-ctx.Done():
			wsConn.Close()
		case <-stopCh:
		}
	}()

	for {
		var snapshot broadcast.Snapshot
		if err := wsConn.ReadJSON(&snapshot); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := fn(&snapshot); err != nil {
			return err
		}
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) request(path string) (io.ReadCloser, error) {
	url := new(url.URL)
	*url = *c.url

	url.Path = fspath.Join(url.Path, path)

	req, err := http.NewRequest(http.MethodGet, url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()

		return nil, &status.ErrorInfo{
			StatusCode: resp.StatusCode,
			Message:    statusMessage(resp.StatusCode),
		}
	}

	return resp.Body, nil
}

func statusMessage(code int) string {
	switch code {
	case http.StatusNotFound:
		return "status not found; check the node type"
	case http.StatusServiceUnavailable:
		return "node not initialised"
	default:
		return "request failed"
	}
}
