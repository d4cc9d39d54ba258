package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ezrec/hypo/kernel"
)

// Client sends interrupts to a monitor.
type Client struct {
	BaseURL string       // ie "http://localhost:8080"
	HTTP    *http.Client // nil for http.DefaultClient
}

func (c *Client) client() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

// Send posts an interrupt, and waits for the monitor to accept it.
func (c *Client) Send(ctx context.Context, intr kernel.Interrupt) (err error) {
	body, err := json.Marshal(NewRequest(intr))
	if err != nil {
		return
	}

	url := strings.TrimSuffix(c.BaseURL, "/") + INTERRUPT_PATH
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusAccepted {
		var reply Response
		_ = json.NewDecoder(resp.Body).Decode(&reply)
		err = &ErrStatus{Code: resp.StatusCode, Message: reply.Error}
		return
	}

	return
}
