package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papermill_reel_tracker/reel"
)

type msg struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []msg
	err  error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg{subj, data})
	return nil
}

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn)
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, p.Publish(context.Background(), reel.Event{
		Type: reel.EventRuled, ReelID: "r1", Operator: "op1", At: at,
	}))
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "reels.ruled", conn.msgs[0].subject)

	var got reel.Event
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &got))
	assert.Equal(t, "r1", got.ReelID)
	assert.Equal(t, "op1", got.Operator)
	assert.True(t, got.At.Equal(at))
}

func TestPublishErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := NewPublisher(conn)
	err := p.Publish(context.Background(), reel.Event{Type: reel.EventCreated})
	assert.ErrorContains(t, err, "reels.created")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, reel.Event{Type: reel.EventCreated}), context.Canceled)
}
