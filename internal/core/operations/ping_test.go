package operations

import (
	"context"
	"testing"

	"github.com/netfleet/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePacketLoss(t *testing.T) {
	loss, ok := ParsePacketLoss("5 packets transmitted, 5 packets received, 0% packet loss")
	require.True(t, ok)
	assert.Equal(t, 0.0, loss)

	loss, ok = ParsePacketLoss("10 packets transmitted, 9 packets received, 10.5% packet loss")
	require.True(t, ok)
	assert.Equal(t, 10.5, loss)

	_, ok = ParsePacketLoss("request timed out")
	assert.False(t, ok)
}

func TestPingTestSucceeds(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["ping"] = "5 packets transmitted, 5 packets received, 0% packet loss"

	op := &PingTest{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{
		"target": "192.0.2.1",
		"count":  float64(3), // JSON numbers arrive as float64
	}, &recordSink{})
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1", out["destination"])
	assert.Equal(t, 3, out["probes"])
	assert.Equal(t, 0.0, out["packet_loss"])
	assert.True(t, sess.ran("ping 192.0.2.1 count 3"))
}

func TestPingTestFailsOnTotalLoss(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["ping"] = "5 packets transmitted, 0 packets received, 100% packet loss"

	op := &PingTest{}
	out, err := op.Run(context.Background(), sess, nil, &recordSink{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	require.NotNil(t, out, "the measured result still comes back with the error")
	assert.Equal(t, 100.0, out["packet_loss"])
}

func TestPingTestClampsBadCount(t *testing.T) {
	sess := newFakeSession("10.0.0.1")
	sess.script["ping"] = "0% packet loss"

	op := &PingTest{}
	out, err := op.Run(context.Background(), sess, domain.JSONB{"count": float64(5000)}, &recordSink{})
	require.NoError(t, err)
	assert.Equal(t, 5, out["probes"])
}
