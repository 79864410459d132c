package encoder

import "context"

var defaultMaxInflight uint = 4

// Gate wraps an Encoder with a bounded concurrency cap. Model inference is
// the most expensive step in the pipeline; the gate keeps concurrent
// pipeline invocations from driving unbounded load into the model backend.
//
// Acquisition respects context cancellation, so a caller whose request is
// cancelled while queued never reaches the model.
type Gate struct {
	inner Encoder
	slots chan struct{}
}

// NewGate wraps inner with a cap of maxInflight concurrent model calls.
func NewGate(inner Encoder, maxInflight uint) *Gate {
	if maxInflight == 0 {
		maxInflight = defaultMaxInflight
	}

	return &Gate{
		inner: inner,
		slots: make(chan struct{}, maxInflight),
	}
}

func (g *Gate) acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) release() {
	<-g.slots
}

// EncodeImage delegates to the wrapped encoder under the cap.
func (g *Gate) EncodeImage(ctx context.Context, data []byte) ([]float32, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()

	return g.inner.EncodeImage(ctx, data)
}

// Caption delegates to the wrapped encoder under the cap.
func (g *Gate) Caption(ctx context.Context, data []byte) (string, error) {
	if err := g.acquire(ctx); err != nil {
		return "", err
	}
	defer g.release()

	return g.inner.Caption(ctx, data)
}

// EncodeText delegates to the wrapped encoder under the cap.
func (g *Gate) EncodeText(ctx context.Context, text string) ([]float32, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()

	return g.inner.EncodeText(ctx, text)
}

// Close closes the wrapped encoder.
func (g *Gate) Close() error {
	return g.inner.Close()
}

var _ Encoder = (*Gate)(nil)
