package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	cmd := TurretCommand{Territory: "W1N1", TurretID: "t1", TargetID: "u9"}
	env, err := NewEnvelope(TypeTurretAttack, cmd)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Errorf("length prefix %d, payload %d", got, buf.Len()-4)
	}

	back, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	var got TurretCommand
	if err := back.Decode(&got); err != nil {
		t.Fatal(err)
	}
	if back.Type != TypeTurretAttack || got != cmd {
		t.Errorf("got %s %+v, want %s %+v", back.Type, got, TypeTurretAttack, cmd)
	}
}

func TestReadEnvelopeRejects(t *testing.T) {
	frame := func(length uint32, payload string) *bytes.Buffer {
		var b bytes.Buffer
		_ = binary.Write(&b, binary.LittleEndian, length)
		b.WriteString(payload)
		return &b
	}
	tests := []struct {
		name string
		in   *bytes.Buffer
		want string
	}{
		{"zero length", frame(0, ""), "invalid message length"},
		{"oversized", frame(MaxFrame+1, ""), "invalid message length"},
		{"truncated", frame(10, "{}"), "read payload"},
		{"not json", frame(3, "abc"), "unmarshal envelope"},
		{"no type", frame(2, "{}"), "without type"},
		{"empty", &bytes.Buffer{}, "read length"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadEnvelope(tc.in)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestConnectionDispatchesAndReplies(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := NewConnection(server, nil)
	var hello HelloMessage
	c.RegisterHandler(TypeHello, func(env Envelope) (*Envelope, error) {
		if err := env.Decode(&hello); err != nil {
			return nil, err
		}
		c.Player = hello.Player
		ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok"})
		return &ack, err
	})
	done := make(chan struct{})
	go func() {
		c.ReadLoop()
		close(done)
	}()

	_ = client.SetDeadline(time.Now().Add(2 * time.Second))

	// Unknown types are skipped without a reply.
	unknown, _ := NewEnvelope("mystery", struct{}{})
	if err := WriteEnvelope(client, unknown); err != nil {
		t.Fatal(err)
	}
	env, _ := NewEnvelope(TypeHello, HelloMessage{Player: "me", Allies: []string{"ally"}})
	if err := WriteEnvelope(client, env); err != nil {
		t.Fatal(err)
	}

	resp, err := ReadEnvelope(client)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	var ack AckMessage
	if err := resp.Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if resp.Type != TypeAck || ack.Status != "ok" {
		t.Errorf("reply = %s %+v", resp.Type, ack)
	}
	if hello.Player != "me" || len(hello.Allies) != 1 {
		t.Errorf("hello = %+v", hello)
	}

	client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not return after close")
	}
}

func TestFailingHandlerKeepsSession(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := NewConnection(server, nil)
	calls := 0
	c.RegisterHandler(TypeGameState, func(env Envelope) (*Envelope, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("bad tick")
		}
		ack, err := NewEnvelope(TypeAck, AckMessage{Status: "ok", Tick: calls})
		return &ack, err
	})
	done := make(chan struct{})
	go func() {
		c.ReadLoop()
		close(done)
	}()

	_ = client.SetDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2; i++ {
		env, _ := NewEnvelope(TypeGameState, struct{}{})
		if err := WriteEnvelope(client, env); err != nil {
			t.Fatalf("write after handler error: %v", err)
		}
	}

	resp, err := ReadEnvelope(client)
	if err != nil {
		t.Fatalf("read reply: %v", err)
	}
	var ack AckMessage
	if err := resp.Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.Tick != 2 {
		t.Errorf("ack tick = %d, want 2", ack.Tick)
	}

	client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop did not return after close")
	}
}

func TestDispatchWrapsHandlerError(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	errBad := errors.New("bad tick")
	c := NewConnection(server, map[string]Handler{
		TypeGameState: func(Envelope) (*Envelope, error) { return nil, errBad },
	})

	_, err := c.dispatch(Envelope{Type: TypeGameState})
	if !errors.Is(err, errBad) || !strings.Contains(err.Error(), TypeGameState) {
		t.Errorf("dispatch error = %v", err)
	}
	reply, err := c.dispatch(Envelope{Type: "mystery"})
	if reply != nil || err != nil {
		t.Errorf("unknown type = %v, %v; want nil, nil", reply, err)
	}
}
