package sonar

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// Future is the pending result of an AsyncClient call.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func goFuture[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.value, f.err = fn()
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the call finishes or ctx is done. Giving up on ctx does
// not cancel the call; cancel the context passed to the call for that.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AsyncClient runs each Client operation on its own goroutine.
type AsyncClient struct {
	client *Client
}

// NewAsync discovers the server in the background.
func NewAsync(ctx context.Context, cfg Config, logger *zap.Logger) *Future[*AsyncClient] {
	return goFuture(func() (*AsyncClient, error) {
		client, err := New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return client.Async(), nil
	})
}

// Async returns a non-blocking view of c. Both share the same session.
func (c *Client) Async() *AsyncClient {
	return &AsyncClient{client: c}
}

// Blocking returns the underlying blocking client.
func (a *AsyncClient) Blocking() *Client {
	return a.client
}

func (a *AsyncClient) IsStreamerMode(ctx context.Context) *Future[bool] {
	return goFuture(func() (bool, error) { return a.client.IsStreamerMode(ctx) })
}

func (a *AsyncClient) SetStreamerMode(ctx context.Context, enable bool) *Future[bool] {
	return goFuture(func() (bool, error) { return a.client.SetStreamerMode(ctx, enable) })
}

func (a *AsyncClient) VolumeData(ctx context.Context) *Future[json.RawMessage] {
	return goFuture(func() (json.RawMessage, error) { return a.client.VolumeData(ctx) })
}

func (a *AsyncClient) SetVolume(ctx context.Context, channel Channel, volume float64, slider Slider) *Future[json.RawMessage] {
	return goFuture(func() (json.RawMessage, error) { return a.client.SetVolume(ctx, channel, volume, slider) })
}

func (a *AsyncClient) MuteChannel(ctx context.Context, channel Channel, muted bool, slider Slider) *Future[json.RawMessage] {
	return goFuture(func() (json.RawMessage, error) { return a.client.MuteChannel(ctx, channel, muted, slider) })
}

func (a *AsyncClient) ChatMixData(ctx context.Context) *Future[json.RawMessage] {
	return goFuture(func() (json.RawMessage, error) { return a.client.ChatMixData(ctx) })
}

func (a *AsyncClient) SetChatMix(ctx context.Context, balance float64) *Future[json.RawMessage] {
	return goFuture(func() (json.RawMessage, error) { return a.client.SetChatMix(ctx, balance) })
}
