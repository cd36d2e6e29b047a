package relay_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/coder/websocket"

	"github.com/ausculto/ausculto/internal/relay"
)

func TestChannel_SendMarshalsJSON(t *testing.T) {
	conn := newFakeConn()
	ch := relay.NewChannel(conn)

	if err := ch.Send(context.Background(), relay.Transcript("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	msgs := textMessages(t, conn)
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].Type != relay.TypeTranscript || msgs[0].Text != "hello" {
		t.Errorf("got %+v", msgs[0])
	}
}

func TestChannel_SendAfterCloseFails(t *testing.T) {
	conn := newFakeConn()
	ch := relay.NewChannel(conn)

	if err := ch.Close(websocket.StatusNormalClosure, "done"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	err := ch.Send(context.Background(), relay.Log("late"))
	if !errors.Is(err, relay.ErrChannelClosed) {
		t.Errorf("got %v, want ErrChannelClosed", err)
	}
	if got := len(conn.writtenFrames()); got != 0 {
		t.Errorf("wrote %d frames after close, want 0", got)
	}
}

func TestChannel_WriteErrorMarksClosed(t *testing.T) {
	conn := newFakeConn()
	conn.failWritesAfter = 0
	ch := relay.NewChannel(conn)

	err := ch.SendBinary(context.Background(), []byte{1, 2, 3})
	if !errors.Is(err, relay.ErrChannelClosed) {
		t.Fatalf("got %v, want ErrChannelClosed", err)
	}
	if !ch.Closed() {
		t.Error("channel not marked closed after write failure")
	}

	// Subsequent sends fail fast without touching the connection.
	conn.failWritesAfter = -1
	err = ch.Send(context.Background(), relay.Log("x"))
	if !errors.Is(err, relay.ErrChannelClosed) {
		t.Errorf("got %v, want ErrChannelClosed", err)
	}
	if got := len(conn.writtenFrames()); got != 0 {
		t.Errorf("wrote %d frames on closed channel, want 0", got)
	}
}

func TestChannel_CloseIdempotent(t *testing.T) {
	conn := newFakeConn()
	ch := relay.NewChannel(conn)

	if err := ch.Close(websocket.StatusNormalClosure, "done"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ch.Close(websocket.StatusNormalClosure, "again"); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if conn.closeCalls != 1 {
		t.Errorf("conn.Close called %d times, want 1", conn.closeCalls)
	}
}

func TestChannel_ReceiveErrorWrapsClosed(t *testing.T) {
	conn := newFakeConn()
	conn.readErr = io.ErrUnexpectedEOF
	ch := relay.NewChannel(conn)

	_, _, err := ch.Receive(context.Background())
	if !errors.Is(err, relay.ErrChannelClosed) {
		t.Errorf("got %v, want ErrChannelClosed", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v, want wrapped read error", err)
	}
	if !ch.Closed() {
		t.Error("channel not marked closed after read failure")
	}
}

func TestChannel_ReceiveDeliversFrames(t *testing.T) {
	conn := newFakeConn(
		frame{typ: websocket.MessageBinary, data: []byte{1, 2}},
		frame{typ: websocket.MessageBinary, data: nil},
	)
	ch := relay.NewChannel(conn)

	typ, data, err := ch.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if typ != websocket.MessageBinary || len(data) != 2 {
		t.Errorf("got typ=%v len=%d", typ, len(data))
	}
}
