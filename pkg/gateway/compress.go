package gateway

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"

	"github.com/gorilla/websocket"
)

// readPayload reads the next payload. Binary messages carry a zlib
// compressed payload.
func readPayload(conn *websocket.Conn, p *payload) error {
	t, msg, err := conn.ReadMessage()
	if err != nil {
		return err
	}

	return decodePayload(t, msg, p)
}

func decodePayload(messageType int, msg []byte, p *payload) error {
	if messageType == websocket.BinaryMessage {
		var err error
		if msg, err = decompress(msg); err != nil {
			return err
		}
	}

	return json.Unmarshal(msg, p)
}

func compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	w := zlib.NewWriter(buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
