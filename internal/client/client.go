// Package client is the Go client for the focusd control socket, used by
// the CLI commands and by integration tests.
package client

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	ferrors "git.home.luguber.info/inful/focusd/internal/foundation/errors"
	"git.home.luguber.info/inful/focusd/internal/protocol"
)

const dialTimeout = 2 * time.Second

// Client talks to a running focusd instance. One-shot calls open a fresh
// connection per request; Watch holds one open for the event stream.
type Client struct {
	socketPath string
}

func New(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Result is the outcome of a one-shot command.
type Result struct {
	Snapshot protocol.Snapshot
	// Warning carries a non-fatal daemon-side degradation, for example a
	// failed history write.
	Warning string
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "cannot reach focusd, is the daemon running?").
			WithContext("socket", c.socketPath).Build()
	}
	return conn, nil
}

func (c *Client) roundTrip(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return protocol.Response{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := protocol.WriteFrame(conn, req); err != nil {
		return protocol.Response{}, ferrors.WrapError(err, ferrors.CategoryProtocol, "failed to send request").Build()
	}

	var resp protocol.Response
	if err := protocol.ReadFrame(conn, &resp); err != nil {
		return protocol.Response{}, ferrors.WrapError(err, ferrors.CategoryProtocol, "failed to read response").Build()
	}
	return resp, nil
}

func (c *Client) command(ctx context.Context, req protocol.Request) (Result, error) {
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return Result{}, err
	}
	return resultFrom(resp)
}

func resultFrom(resp protocol.Response) (Result, error) {
	switch resp.Type {
	case protocol.ResponseError:
		if resp.Error == nil {
			return Result{}, ferrors.ProtocolError("error response without error payload").Build()
		}
		return Result{}, resp.Error.ErrorFor()
	case protocol.ResponseOk:
		res := Result{Warning: resp.Warning}
		if resp.Snapshot != nil {
			res.Snapshot = *resp.Snapshot
		}
		return res, nil
	default:
		return Result{}, ferrors.ProtocolError("unexpected response type").
			WithContext("type", string(resp.Type)).Build()
	}
}

// StartOptions are the parameters for a new session. Zero values use the
// daemon's configured defaults.
type StartOptions struct {
	Mode                   string
	DurationMinutes        int
	CheckInIntervalMinutes int
}

// Start begins a new focus session.
func (c *Client) Start(ctx context.Context, opts StartOptions) (Result, error) {
	return c.command(ctx, protocol.Request{
		Type: protocol.RequestStart,
		Start: &protocol.StartRequest{
			Mode:                   opts.Mode,
			DurationMinutes:        opts.DurationMinutes,
			CheckInIntervalMinutes: opts.CheckInIntervalMinutes,
		},
	})
}

// Pause freezes the active session.
func (c *Client) Pause(ctx context.Context) (Result, error) {
	return c.command(ctx, protocol.Request{Type: protocol.RequestPause})
}

// Resume restarts a paused session.
func (c *Client) Resume(ctx context.Context) (Result, error) {
	return c.command(ctx, protocol.Request{Type: protocol.RequestResume})
}

// Stop ends the session early.
func (c *Client) Stop(ctx context.Context) (Result, error) {
	return c.command(ctx, protocol.Request{Type: protocol.RequestStop})
}

// Status reads the current session snapshot.
func (c *Client) Status(ctx context.Context) (Result, error) {
	return c.command(ctx, protocol.Request{Type: protocol.RequestStatus})
}

// Respond answers a pending check-in.
func (c *Client) Respond(ctx context.Context, decision string) (Result, error) {
	return c.command(ctx, protocol.Request{
		Type:    protocol.RequestCheckInRespond,
		CheckIn: &protocol.CheckInRequest{Decision: decision},
	})
}

// Ping checks that the daemon answers on the socket.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, protocol.Request{Type: protocol.RequestPing})
	if err != nil {
		return err
	}
	if resp.Type != protocol.ResponsePong {
		return ferrors.ProtocolError("unexpected ping response").
			WithContext("type", string(resp.Type)).Build()
	}
	return nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, protocol.Request{Type: protocol.RequestShutdown})
	if err != nil {
		return err
	}
	if resp.Type == protocol.ResponseError && resp.Error != nil {
		return resp.Error.ErrorFor()
	}
	return nil
}

// Watch subscribes to the session event stream. handler is first called
// with the current snapshot, then once per session change, until ctx is
// canceled, the daemon closes the stream, or handler returns an error.
func (c *Client) Watch(ctx context.Context, handler func(protocol.Snapshot) error) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock the read loop when ctx ends.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watchDone:
		}
	}()

	if err := protocol.WriteFrame(conn, protocol.Request{Type: protocol.RequestSubscribe}); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryProtocol, "failed to subscribe").Build()
	}

	for {
		var resp protocol.Response
		if err := protocol.ReadFrame(conn, &resp); err != nil {
			// Cancellation and a daemon-side close both end the stream
			// cleanly.
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return ferrors.WrapError(err, ferrors.CategoryProtocol, "event stream failed").Build()
		}

		switch resp.Type {
		case protocol.ResponseOk, protocol.ResponseEvent:
			if resp.Snapshot == nil {
				continue
			}
			if err := handler(*resp.Snapshot); err != nil {
				return err
			}
		case protocol.ResponseError:
			if resp.Error != nil {
				return resp.Error.ErrorFor()
			}
			return ferrors.ProtocolError("stream error without payload").Build()
		}
	}
}
