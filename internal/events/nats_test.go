package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cabbooking/internal/domain"
)

type recordingConn struct {
	msgs []*nats.Msg
	err  error
}

func (c *recordingConn) PublishMsg(msg *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	conn := &recordingConn{}
	p := &Publisher{conn: conn, prefix: "cab"}

	err := p.Publish(context.Background(), domain.RideEvent{
		Type:   domain.EventRideAccepted,
		RideID: "r1",
		Actor:  "bob",
		Status: domain.RideStatusAccepted,
	})
	require.NoError(t, err)
	require.Len(t, conn.msgs, 1)

	msg := conn.msgs[0]
	assert.Equal(t, "cab.ride.accepted", msg.Subject)
	assert.Equal(t, "ride.accepted", msg.Header.Get("x-event-type"))

	var decoded domain.RideEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, "r1", decoded.RideID)
	assert.Equal(t, "bob", decoded.Actor)
}

func TestPublisher_NilConnIsNoop(t *testing.T) {
	p := NewPublisher(nil, "cab")
	assert.NoError(t, p.Publish(context.Background(), domain.RideEvent{Type: domain.EventRideBooked}))

	var nilPublisher *Publisher
	assert.NoError(t, nilPublisher.Publish(context.Background(), domain.RideEvent{Type: domain.EventRideBooked}))
}

func TestPublisher_PropagatesError(t *testing.T) {
	conn := &recordingConn{err: errors.New("nats down")}
	p := &Publisher{conn: conn}
	err := p.Publish(context.Background(), domain.RideEvent{Type: domain.EventRideBooked})
	assert.EqualError(t, err, "nats down")
}
