package client

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// refreshCoordinator serializes session refresh attempts. However many
// requests observe a 401 concurrently, exactly one POST /auth/refresh
// goes out; the rest wait for its outcome and share it. Each Client
// owns its own coordinator so tests never leak refresh state across
// instances.
type refreshCoordinator struct {
	group singleflight.Group
}

func newRefreshCoordinator() *refreshCoordinator {
	return &refreshCoordinator{}
}

// await blocks until a session refresh completes, starting one if none
// is in flight. A nil return means the session was renewed and the
// caller should retry its original request. Any refresh failure —
// non-2xx from the endpoint or a transport error — is reported to
// every waiter as an authentication *Error, which is terminal for
// their call paths.
func (r *refreshCoordinator) await(ctx context.Context, c *Client) error {
	_, err, shared := r.group.Do("refresh", func() (any, error) {
		return nil, c.doRefresh(ctx)
	})
	if err != nil {
		return err
	}
	if shared {
		c.logger.DebugContext(ctx, "joined in-flight session refresh")
	}
	return nil
}

// doRefresh calls the refresh endpoint directly through send,
// bypassing Request so a 401 from the refresh endpoint itself cannot
// re-enter the protocol.
func (c *Client) doRefresh(ctx context.Context) error {
	c.logger.DebugContext(ctx, "refreshing session")
	resp, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil)
	if err != nil {
		c.logger.DebugContext(ctx, "session refresh transport failure",
			slog.String("error", err.Error()))
		return &Error{Status: http.StatusUnauthorized, Message: "session expired"}
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.DebugContext(ctx, "session refresh rejected",
			slog.Int("status", resp.StatusCode))
		return &Error{Status: http.StatusUnauthorized, Message: "session expired"}
	}
	return nil
}
