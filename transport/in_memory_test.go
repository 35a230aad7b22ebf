package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callbridge/callbridge/core"
)

func TestInMemory_PushReceive(t *testing.T) {
	session := NewInMemory(4)

	require.NoError(t, session.Push(core.Call{ID: "c1", Operation: "ping"}))
	id, err := session.PushCall("add", "2", "3")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	call, err := session.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, "c1", call.ID)

	call, err = session.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, id, call.ID)
	assert.Equal(t, []string{"2", "3"}, call.Args)
}

func TestInMemory_CloseDrainsBeforeSessionClosed(t *testing.T) {
	session := NewInMemory(4)
	require.NoError(t, session.Push(core.Call{ID: "c1", Operation: "ping"}))
	session.Close()

	call, err := session.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, "c1", call.ID)

	_, err = session.ReceiveNext()
	assert.ErrorIs(t, err, core.ErrSessionClosed)
}

func TestInMemory_PushAfterClose(t *testing.T) {
	session := NewInMemory(1)
	session.Close()
	session.Close() // idempotent

	err := session.Push(core.Call{ID: "c1", Operation: "ping"})
	assert.ErrorIs(t, err, core.ErrSessionClosed)
}

func TestInMemory_PushQueueFull(t *testing.T) {
	session := NewInMemory(1)
	require.NoError(t, session.Push(core.Call{ID: "c1", Operation: "ping"}))

	err := session.Push(core.Call{ID: "c2", Operation: "ping"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
}

func TestInMemory_SentPreservesDeliveryOrder(t *testing.T) {
	session := NewInMemory(1)

	require.NoError(t, session.SendProgress("c1", core.NewProgress("Working", "a", 10)))
	require.NoError(t, session.SendProgress("c1", core.NewProgress("Working", "b", 90)))
	require.NoError(t, session.SendResponse(core.Accept("c1", "done")))

	sent := session.Sent()
	require.Len(t, sent, 3)
	assert.NotNil(t, sent[0].Progress)
	assert.NotNil(t, sent[1].Progress)
	require.NotNil(t, sent[2].Response)
	assert.Equal(t, "c1", sent[2].CallID)
}

func TestInMemory_SendAfterCloseStillRecorded(t *testing.T) {
	session := NewInMemory(1)
	session.Close()

	// Half-close semantics: responses for already-accepted calls must not
	// be dropped when the inbound side closes first.
	require.NoError(t, session.SendResponse(core.Accept("c1", "done")))
	assert.Len(t, session.Sent(), 1)
}

func TestInMemory_OutboundStream(t *testing.T) {
	session := NewInMemory(1)
	require.NoError(t, session.SendResponse(core.Accept("c1", "done")))

	select {
	case out := <-session.Outbound():
		require.NotNil(t, out.Response)
		assert.Equal(t, "c1", out.Response.CallID)
	default:
		t.Fatal("expected a live outbound frame")
	}
}
