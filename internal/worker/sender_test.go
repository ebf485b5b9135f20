package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/kmutua/feedback-gateway/internal/dispatcher"
	"github.com/kmutua/feedback-gateway/internal/kafka"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConsumer struct {
	mu        sync.Mutex
	committed []kafka.Message
}

func (c *fakeConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (c *fakeConsumer) Commit(_ context.Context, m kafka.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.committed = append(c.committed, m)
	return nil
}

type stubProvider struct {
	mu   sync.Mutex
	sent []model.SMS
	err  error
}

func (p *stubProvider) Name() string  { return "stub" }
func (p *stubProvider) Ready() bool   { return true }
func (p *stubProvider) Acquire() bool { return true }
func (p *stubProvider) Send(_ context.Context, sms model.SMS) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, sms)
	return nil
}

func envelopeMessage(t *testing.T, id string) kafka.Message {
	t.Helper()
	b, err := json.Marshal(model.Envelope{
		ID:         id,
		CustomerID: 7,
		SMS:        model.SMS{Phone: "254712345678", Text: "Hi Jane"},
	})
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestProcessOne_SentUpdate(t *testing.T) {
	consumer := &fakeConsumer{}
	prov := &stubProvider{}
	w := NewGreetingSender(nil, consumer, nil, dispatcher.NewDispatcher([]dispatcher.Provider{prov}))

	out := make(chan updateItem, 1)
	w.processOne(context.Background(), envelopeMessage(t, "01A"), out)

	u := <-out
	assert.Equal(t, "01A", u.id)
	assert.Equal(t, model.StatusSent, u.status)
	require.Len(t, prov.sent, 1)
	assert.Equal(t, "254712345678", prov.sent[0].Phone)
	assert.Len(t, consumer.committed, 1)
}

func TestProcessOne_FailedUpdate(t *testing.T) {
	consumer := &fakeConsumer{}
	prov := &stubProvider{err: assert.AnError}
	w := NewGreetingSender(nil, consumer, nil, dispatcher.NewDispatcher([]dispatcher.Provider{prov}))

	out := make(chan updateItem, 1)
	w.processOne(context.Background(), envelopeMessage(t, "01B"), out)

	u := <-out
	assert.Equal(t, model.StatusFailed, u.status)
	// the message is still committed; the failed row records the outcome
	assert.Len(t, consumer.committed, 1)
}

func TestProcessOne_PoisonMessageCommittedAndSkipped(t *testing.T) {
	consumer := &fakeConsumer{}
	prov := &stubProvider{}
	w := NewGreetingSender(nil, consumer, nil, dispatcher.NewDispatcher([]dispatcher.Provider{prov}))

	out := make(chan updateItem, 1)
	w.processOne(context.Background(), kafka.Message{Value: []byte("{not json")}, out)
	w.processOne(context.Background(), kafka.Message{Value: []byte(`{"id":""}`)}, out)

	assert.Empty(t, prov.sent)
	assert.Len(t, consumer.committed, 2)
	select {
	case u := <-out:
		t.Fatalf("unexpected update for poison message: %+v", u)
	default:
	}
}
