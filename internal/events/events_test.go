package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_Validate(t *testing.T) {
	assert.NoError(t, Success("x", "tok").Validate())
	assert.NoError(t, Failure("x").Validate())
	assert.Error(t, Message{Type: TypeAuthSuccess, Platform: "x"}.Validate())
	assert.Error(t, Message{Type: "auth-maybe", Platform: "x"}.Validate())
	assert.Error(t, Failure("").Validate())
}

func TestDecode_RoundTrip(t *testing.T) {
	b, err := Success("meta", "signed").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"auth-success","platform":"meta","token":"signed"}`, string(b))

	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, Success("meta", "signed"), m)

	b, _ = Failure("x").Encode()
	assert.JSONEq(t, `{"type":"auth-failure","platform":"x"}`, string(b))
}

func TestHub_FanOutAndUnsubscribe(t *testing.T) {
	h := NewHub()
	var a, b []Message
	unA := h.Subscribe(func(m Message) { a = append(a, m) })
	unB := h.Subscribe(func(m Message) { b = append(b, m) })

	require.NoError(t, h.Publish(context.Background(), Failure("x")))
	unA()
	unA()
	require.NoError(t, h.Publish(context.Background(), Success("meta", "t")))
	unB()

	assert.Len(t, a, 1)
	assert.Len(t, b, 2)
	assert.Equal(t, 0, h.Len())
}

func TestRedisBus_DeliversAcrossClients(t *testing.T) {
	mr := miniredis.RunT(t)
	subClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	pubClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer pubClient.Close()
	defer subClient.Close()

	listener := NewRedisBus(subClient, "test:auth")
	defer listener.Close()
	publisher := NewRedisBus(pubClient, "test:auth")

	got := make(chan Message, 1)
	unsubscribe := listener.Subscribe(func(m Message) { got <- m })
	defer unsubscribe()

	require.NoError(t, publisher.Publish(context.Background(), Success("linkedin", "tok")))

	select {
	case m := <-got:
		assert.Equal(t, Success("linkedin", "tok"), m)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}
