package integration

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kasuganosora/stashcount/api/ws"
	"github.com/kasuganosora/stashcount/game/ownership"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sendPacket(t *testing.T, conn *websocket.Conn, seq uint64, typ, payload string) ws.Packet {
	t.Helper()
	pkt := ws.Packet{Seq: seq, Type: typ}
	if payload != "" {
		pkt.Payload = json.RawMessage(payload)
	}
	require.NoError(t, conn.WriteJSON(pkt))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply ws.Packet
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestFlow_HostSocketDrivesHover(t *testing.T) {
	ts := NewTestServer(t, NewBackend(t, baseWorld))
	conn := ts.DialHost(t)

	reply := sendPacket(t, conn, 1, ws.TypeHover, `{"type_id":5}`)
	require.Equal(t, ws.TypeAck, reply.Type)
	assert.Eventually(t, func() bool {
		_, resp := ts.Get(t, "/api/hover")
		return resp["active"] == true && resp["total"] == float64(5)
	}, 2*time.Second, 20*time.Millisecond)

	reply = sendPacket(t, conn, 2, ws.TypeHover, "null")
	require.Equal(t, ws.TypeAck, reply.Type)
	assert.Eventually(t, func() bool {
		_, resp := ts.Get(t, "/api/hover")
		return resp["active"] == false
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFlow_HostSocketRequiresAdminKey(t *testing.T) {
	ts := NewTestServer(t, NewBackend(t, baseWorld))
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/host"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestFlow_EventStreamSeesItemOperation(t *testing.T) {
	ts := NewTestServer(t, NewBackend(t, baseWorld))
	ts.Count(t, 5) // snapshot valid for save-1

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/sse", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	rd := bufio.NewReader(resp.Body)

	readKind := func() string {
		var name string
		for {
			line, err := rd.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimSpace(line)
			if line == "" && name != "" {
				return name
			}
			if strings.HasPrefix(line, "event:") {
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			}
		}
	}
	require.Equal(t, "connected", readKind())

	conn := ts.DialHost(t)
	require.Equal(t, ws.TypeAck, sendPacket(t, conn, 1, ws.TypeItemOp, "").Type)
	assert.Equal(t, ownership.EventStash, readKind())
}
