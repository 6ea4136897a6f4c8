package gateway

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func Test_decodePayload(t *testing.T) {
	raw := []byte(`{"op":0,"t":"READY","s":1,"d":{"session_id":"abc"}}`)

	var text payload
	require.NoError(t, decodePayload(websocket.TextMessage, raw, &text))
	require.Equal(t, eventReady, text.Type)

	compressed, err := compress(raw)
	require.NoError(t, err)

	var binary payload
	require.NoError(t, decodePayload(websocket.BinaryMessage, compressed, &binary))
	require.Equal(t, text, binary)
	require.Equal(t, int64(1), *binary.Sequence)

	require.Error(t, decodePayload(websocket.BinaryMessage, raw, &binary))
}
