package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/pbcodec/v1/kafka"
	"github.com/Aleph-Alpha/pbcodec/v1/rabbit"
)

type fakeKafkaMessage struct {
	fakeMessage
}

func (m *fakeKafkaMessage) CommitMsg() error         { return m.fakeMessage.Commit() }
func (m *fakeKafkaMessage) BodyAs(interface{}) error { return errors.New("not supported") }

type fakeKafkaClient struct {
	messages []kafka.Message
	workers  int

	mu        sync.Mutex
	published []published
}

func (c *fakeKafkaClient) ConsumeParallel(_ context.Context, _ *sync.WaitGroup, numWorkers int) <-chan kafka.Message {
	c.workers = numWorkers
	ch := make(chan kafka.Message, len(c.messages))
	for _, m := range c.messages {
		ch <- m
	}
	close(ch)
	return ch
}

func (c *fakeKafkaClient) Publish(_ context.Context, key string, data interface{}, headers ...map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := published{key: key, data: data.([]byte)}
	if len(headers) > 0 {
		p.headers = headers[0]
	}
	c.published = append(c.published, p)
	return nil
}

func drain(t *testing.T, src Source, workers int) []Message {
	t.Helper()
	wg := &sync.WaitGroup{}
	var out []Message
	for m := range src.Messages(context.Background(), wg, workers) {
		out = append(out, m)
	}
	wg.Wait()
	return out
}

func TestKafkaSource(t *testing.T) {
	in := &fakeKafkaMessage{fakeMessage{key: "k", body: []byte("pinkie"), partition: 3, offset: 42}}
	client := &fakeKafkaClient{messages: []kafka.Message{in}}

	msgs := drain(t, KafkaSource(client), 4)
	assert.Equal(t, 4, client.workers)
	require.Len(t, msgs, 1)

	msg := msgs[0]
	assert.Equal(t, "k", msg.Key())
	assert.Equal(t, []byte("pinkie"), msg.Body())
	assert.Equal(t, map[string]interface{}{"key": "k", "partition": 3, "offset": int64(42)}, messageFields(msg))

	require.NoError(t, msg.Commit())
	assert.True(t, in.isCommitted())
	_, rejectable := msg.(rejecter)
	assert.False(t, rejectable)
}

func TestKafkaSink(t *testing.T) {
	client := &fakeKafkaClient{}
	err := KafkaSink(client).Publish(context.Background(), "k", []byte("pinkie"), map[string]interface{}{"origin": "stable"})
	require.NoError(t, err)

	require.Len(t, client.published, 1)
	assert.Equal(t, published{key: "k", data: []byte("pinkie"), headers: map[string]interface{}{"origin": "stable"}}, client.published[0])
}

type fakeRabbitMessage struct {
	routingKey string
	headers    map[string]interface{}
	acked      bool
	nacked     bool
	requeue    bool
}

func (m *fakeRabbitMessage) AckMsg() error {
	m.acked = true
	return nil
}

func (m *fakeRabbitMessage) NackMsg(requeue bool) error {
	m.nacked, m.requeue = true, requeue
	return nil
}

func (m *fakeRabbitMessage) Body() []byte                   { return []byte("pinkie") }
func (m *fakeRabbitMessage) Header() map[string]interface{} { return m.headers }
func (m *fakeRabbitMessage) RoutingKey() string             { return m.routingKey }

type fakeRabbitClient struct {
	messages []rabbit.Message

	published [][]byte
	headers   []map[string]interface{}
}

func (c *fakeRabbitClient) Consume(_ context.Context, _ *sync.WaitGroup) <-chan rabbit.Message {
	ch := make(chan rabbit.Message, len(c.messages))
	for _, m := range c.messages {
		ch <- m
	}
	close(ch)
	return ch
}

func (c *fakeRabbitClient) Publish(_ context.Context, msg []byte, headers ...map[string]interface{}) error {
	c.published = append(c.published, msg)
	if len(headers) > 0 {
		c.headers = append(c.headers, headers[0])
	}
	return nil
}

func TestRabbitSource(t *testing.T) {
	routed := &fakeRabbitMessage{routingKey: "stable"}
	keyed := &fakeRabbitMessage{routingKey: "stable", headers: map[string]interface{}{KeyHeader: "Pinkie"}}
	client := &fakeRabbitClient{messages: []rabbit.Message{routed, keyed}}

	msgs := drain(t, RabbitSource(client), 2)
	require.Len(t, msgs, 2)
	assert.Equal(t, "stable", msgs[0].Key())
	assert.Equal(t, "Pinkie", msgs[1].Key())
	assert.Equal(t, map[string]interface{}{"key": "stable"}, messageFields(msgs[0]))

	require.NoError(t, msgs[0].Commit())
	assert.True(t, routed.acked)

	r, ok := msgs[1].(rejecter)
	require.True(t, ok)
	require.NoError(t, r.Reject())
	assert.True(t, keyed.nacked)
	assert.False(t, keyed.requeue)
}

func TestRabbitSinkKeepsKeyInHeader(t *testing.T) {
	client := &fakeRabbitClient{}
	sink := RabbitSink(client)
	headers := map[string]interface{}{"origin": "stable"}

	require.NoError(t, sink.Publish(context.Background(), "Pinkie", []byte("a"), headers))
	require.NoError(t, sink.Publish(context.Background(), "", []byte("b"), headers))

	require.Len(t, client.headers, 2)
	assert.Equal(t, map[string]interface{}{"origin": "stable", KeyHeader: "Pinkie"}, client.headers[0])
	assert.Equal(t, map[string]interface{}{"origin": "stable"}, client.headers[1])
	assert.Equal(t, map[string]interface{}{"origin": "stable"}, headers)
}

func TestPickTransport(t *testing.T) {
	_, err := pickSource(nil, nil)
	assert.ErrorIs(t, err, ErrMissingTransport)
	_, err = pickSink(nil, nil)
	assert.ErrorIs(t, err, ErrMissingTransport)

	_, err = pickSource(&kafka.KafkaClient{}, &rabbit.RabbitClient{})
	assert.ErrorIs(t, err, ErrAmbiguousTransport)
	_, err = pickSink(&kafka.KafkaClient{}, &rabbit.RabbitClient{})
	assert.ErrorIs(t, err, ErrAmbiguousTransport)

	src, err := pickSource(nil, &rabbit.RabbitClient{})
	require.NoError(t, err)
	assert.IsType(t, rabbitSource{}, src)

	sink, err := pickSink(&kafka.KafkaClient{}, nil)
	require.NoError(t, err)
	assert.IsType(t, kafkaSink{}, sink)
}
