package httpbridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callbridge/callbridge/core"
)

// -------------------- Hub --------------------

func TestHub_PublishSubscribe(t *testing.T) {
	h := newHub(8)

	frames, cancel := h.subscribe()
	defer cancel()

	h.publish("response", []byte(`{"id":"c1"}`))

	select {
	case f := <-frames:
		assert.Equal(t, int64(1), f.ID)
		assert.Equal(t, "response", f.Event)
		assert.JSONEq(t, `{"id":"c1"}`, string(f.Data))
	case <-time.After(time.Second):
		t.Fatal("expected a published frame")
	}
}

func TestHub_SnapshotSince(t *testing.T) {
	h := newHub(8)
	h.publish("response", []byte(`1`))
	h.publish("progress", []byte(`2`))
	h.publish("response", []byte(`3`))

	all := h.snapshotSince(0)
	require.Len(t, all, 3)

	tail := h.snapshotSince(2)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].ID)
}

func TestHub_RingOverwritesOldest(t *testing.T) {
	h := newHub(2)
	h.publish("response", []byte(`1`))
	h.publish("response", []byte(`2`))
	h.publish("response", []byte(`3`))

	frames := h.snapshotSince(0)
	require.Len(t, frames, 2)
	assert.Equal(t, int64(2), frames[0].ID)
	assert.Equal(t, int64(3), frames[1].ID)
}

// -------------------- Call Intake --------------------

func postCall(t *testing.T, server *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+"/call", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp
}

func TestBridge_HandleCall(t *testing.T) {
	bridge := New()
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	resp := postCall(t, server, `{"call_name":"add","arguments":["2","3"]}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var ack map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.NotEmpty(t, ack["id"], "a correlation id is assigned when the client omits one")

	call, err := bridge.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, ack["id"], call.ID)
	assert.Equal(t, "add", call.Operation)
	assert.Equal(t, []string{"2", "3"}, call.Args)
}

func TestBridge_HandleCall_ClientID(t *testing.T) {
	bridge := New()
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	resp := postCall(t, server, `{"id":"call-9","call_name":"ping"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	call, err := bridge.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, "call-9", call.ID)
	assert.Nil(t, call.Args)
}

func TestBridge_HandleCall_Invalid(t *testing.T) {
	bridge := New()
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	resp := postCall(t, server, `{not json`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postCall(t, server, `{"arguments":["x"]}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBridge_HandleCall_QueueFull(t *testing.T) {
	bridge := New(func(o *Options) { o.CallBuffer = 1 })
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	resp := postCall(t, server, `{"call_name":"ping"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = postCall(t, server, `{"call_name":"ping"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBridge_HandleCall_AfterClose(t *testing.T) {
	bridge := New()
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	bridge.Close()

	resp := postCall(t, server, `{"call_name":"ping"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

// -------------------- Session Lifecycle --------------------

func TestBridge_ReceiveNext_DrainsBeforeSessionClosed(t *testing.T) {
	bridge := New()
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	resp := postCall(t, server, `{"call_name":"ping"}`)
	resp.Body.Close()

	bridge.Close()

	call, err := bridge.ReceiveNext()
	require.NoError(t, err)
	assert.Equal(t, "ping", call.Operation)

	_, err = bridge.ReceiveNext()
	assert.ErrorIs(t, err, core.ErrSessionClosed)
}

// -------------------- Event Stream --------------------

func TestBridge_EventsReplay(t *testing.T) {
	bridge := New()
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	require.NoError(t, bridge.SendProgress("c1", core.NewProgress("Working", "half", 50)))
	require.NoError(t, bridge.SendResponse(core.Accept("c1", "done")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events, payloads []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() && len(payloads) < 2 {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimPrefix(line, "event: "))
		}
		if strings.HasPrefix(line, "data: ") {
			payloads = append(payloads, strings.TrimPrefix(line, "data: "))
		}
	}

	require.Equal(t, []string{"progress", "response"}, events, "progress is replayed strictly before the terminal response")
	assert.JSONEq(t, `{"id":"c1","progress":{"title":"Working","message":"half","percent":50}}`, payloads[0])
	assert.JSONEq(t, `{"id":"c1","ok":true,"message":"done"}`, payloads[1])
}

// -------------------- Discovery --------------------

func TestBridge_Operations(t *testing.T) {
	bridge := New(func(o *Options) {
		o.Operations = func() []string { return []string{"add", "ping"} }
	})
	server := httptest.NewServer(bridge.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/operations")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"add", "ping"}, body["operations"])
}
