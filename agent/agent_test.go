package agent

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/nstehr/vimy/vimy-defense/config"
	"github.com/nstehr/vimy/vimy-defense/defense"
	"github.com/nstehr/vimy/vimy-defense/ipc"
	"github.com/nstehr/vimy/vimy-defense/model"
	"github.com/nstehr/vimy/vimy-defense/store"
)

type recordingPublisher struct {
	reports []defense.Report
	events  []string
}

func (p *recordingPublisher) Publish(r defense.Report) { p.reports = append(p.reports, r) }

func (p *recordingPublisher) Announce(tick int, event, territory, detail string) {
	p.events = append(p.events, event)
}

// session runs an agent on one end of a pipe and hands back the other end
// plus a channel of every frame the agent writes.
type session struct {
	t      *testing.T
	client net.Conn
	frames chan ipc.Envelope
	done   chan struct{}
}

func startSession(t *testing.T, a *Agent, client net.Conn) *session {
	s := &session{t: t, client: client, frames: make(chan ipc.Envelope, 16), done: make(chan struct{})}
	a.Conn.RegisterHandler(ipc.TypeHello, a.HandleHello)
	a.Conn.RegisterHandler(ipc.TypeGameState, a.HandleGameState)
	a.Conn.RegisterHandler(ipc.TypeActionResult, a.HandleActionResult)
	go func() {
		a.Conn.ReadLoop()
		close(s.done)
	}()
	go func() {
		for {
			env, err := ipc.ReadEnvelope(client)
			if err != nil {
				close(s.frames)
				return
			}
			s.frames <- env
		}
	}()
	return s
}

func (s *session) send(msgType string, data any) {
	s.t.Helper()
	env, err := ipc.NewEnvelope(msgType, data)
	if err != nil {
		s.t.Fatal(err)
	}
	_ = s.client.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := ipc.WriteEnvelope(s.client, env); err != nil {
		s.t.Fatalf("send %s: %v", msgType, err)
	}
}

func (s *session) expect(msgType string, v any) {
	s.t.Helper()
	select {
	case env, ok := <-s.frames:
		if !ok {
			s.t.Fatalf("connection closed waiting for %s", msgType)
		}
		if env.Type != msgType {
			s.t.Fatalf("got %s, want %s", env.Type, msgType)
		}
		if v != nil {
			if err := env.Decode(v); err != nil {
				s.t.Fatal(err)
			}
		}
	case <-time.After(2 * time.Second):
		s.t.Fatalf("timed out waiting for %s", msgType)
	}
}

func (s *session) close() {
	s.t.Helper()
	s.client.Close()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		s.t.Fatal("read loop did not stop")
	}
}

func TestAgentSession(t *testing.T) {
	cfg := config.Default()
	cfg.State.PersistEveryTicks = 1
	st := store.NewFile(filepath.Join(t.TempDir(), "state.zst"))
	pub := &recordingPublisher{}

	server, client := net.Pipe()
	a, err := New(ipc.NewConnection(server, nil), cfg, st, pub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := startSession(t, a, client)

	s.send(ipc.TypeHello, ipc.HelloMessage{Player: "me"})
	s.expect(ipc.TypeAck, nil)

	tower := model.Structure{ID: "t1", Category: model.Tower, Owner: "me", Hits: 3000, HitsMax: 3000, Energy: 500, EnergyCapacity: 1000}
	raider := model.Unit{ID: "u9", Owner: "invader", Hits: 500, HitsMax: 500}
	s.send(ipc.TypeGameState, model.GameState{Tick: 5, Player: "me", Territories: []model.Territory{
		{Name: "W1N1", Level: 4, Controller: "me", Structures: []model.Structure{tower}, Units: []model.Unit{raider}},
	}})
	var attack ipc.TurretCommand
	s.expect(ipc.TypeTurretAttack, &attack)
	if attack != (ipc.TurretCommand{Territory: "W1N1", TurretID: "t1", TargetID: "u9"}) {
		t.Errorf("attack = %+v", attack)
	}
	var ack ipc.AckMessage
	s.expect(ipc.TypeAck, &ack)
	if ack.Tick != 5 {
		t.Errorf("ack tick = %d, want 5", ack.Tick)
	}

	road := model.Structure{ID: "r1", Category: model.Road, Hits: 2000, HitsMax: 5000}
	s.send(ipc.TypeGameState, model.GameState{Tick: 10, Player: "me", Territories: []model.Territory{
		{Name: "W1N1", Level: 4, Controller: "me", Structures: []model.Structure{tower, road}},
	}})
	var repair ipc.TurretCommand
	s.expect(ipc.TypeTurretRepair, &repair)
	if repair.TargetID != "r1" || repair.TurretID != "t1" {
		t.Errorf("repair = %+v", repair)
	}
	s.expect(ipc.TypeAck, nil)

	saved, err := st.Load(context.Background(), "me")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved["W1N1"].RepairTargetID != "r1" || saved["W1N1"].LastRepairScan != 10 {
		t.Errorf("persisted after tick 10 = %+v", saved["W1N1"])
	}

	// The game rejects the repair; no reply is sent and the cached target goes.
	s.send(ipc.TypeActionResult, ipc.ActionResultMessage{Territory: "W1N1", Action: "repair", Target: "r1", Code: ipc.CodeInvalidTarget})
	s.close()
	a.Close()

	saved, err = st.Load(context.Background(), "me")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r := saved["W1N1"]; r.RepairTargetID != "" || r.IntegrityRepaired != 0 || r.LastRepairScan != 10 {
		t.Errorf("persisted on close = %+v", r)
	}

	if len(pub.reports) != 2 {
		t.Errorf("published %d reports, want 2", len(pub.reports))
	}
	wantEvents := []string{"territory_gained", "hostiles_arrived", "hostiles_cleared"}
	if len(pub.events) != len(wantEvents) {
		t.Fatalf("events = %v, want %v", pub.events, wantEvents)
	}
	for i := range wantEvents {
		if pub.events[i] != wantEvents[i] {
			t.Errorf("event %d = %s, want %s", i, pub.events[i], wantEvents[i])
		}
	}
}

func TestAgentRestoresOnHello(t *testing.T) {
	st := store.NewFile(filepath.Join(t.TempDir(), "state.zst"))
	if err := st.Save(context.Background(), "me", 90, map[string]defense.Record{
		"W1N1": {RepairTargetID: "w1", IntegrityRepaired: 1600, LastRepairScan: 80},
	}); err != nil {
		t.Fatal(err)
	}

	server, client := net.Pipe()
	a, err := New(ipc.NewConnection(server, nil), config.Default(), st, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s := startSession(t, a, client)
	s.send(ipc.TypeHello, ipc.HelloMessage{Player: "me"})
	s.expect(ipc.TypeAck, nil)
	s.close()

	if got := a.Alloc.Export()["W1N1"]; got.RepairTargetID != "w1" || got.IntegrityRepaired != 1600 {
		t.Errorf("restored record = %+v", got)
	}
}

func TestNewRejectsBadCondition(t *testing.T) {
	cfg := config.Default()
	cfg.Advisory.Condition = "Haulers +"
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()
	if _, err := New(ipc.NewConnection(server, nil), cfg, nil, nil); err == nil {
		t.Error("expected error for bad advisory condition")
	}
}
