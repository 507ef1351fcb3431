package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nstehr/vimy/vimy-defense/advisory"
	"github.com/nstehr/vimy/vimy-defense/classify"
	"github.com/nstehr/vimy/vimy-defense/config"
	"github.com/nstehr/vimy/vimy-defense/defense"
	"github.com/nstehr/vimy/vimy-defense/ipc"
	"github.com/nstehr/vimy/vimy-defense/model"
	"github.com/nstehr/vimy/vimy-defense/store"
	"github.com/nstehr/vimy/vimy-defense/zone"
)

const storeTimeout = 5 * time.Second

// Publisher receives every allocation report and territory event.
type Publisher interface {
	Publish(r defense.Report)
	Announce(tick int, event, territory, detail string)
}

// Agent owns the allocation loop for a single player session.
type Agent struct {
	Conn   *ipc.Connection
	Player string
	Alloc  *defense.Allocator

	zones      *zone.Cache
	classifier *classify.Classifier
	advisory   *advisory.Advisory
	store      store.Store
	pub        Publisher

	persistEvery int
	lastPersist  int
	prev         *tickSnapshot
}

// New wires a session. st and pub may be nil.
func New(conn *ipc.Connection, cfg config.Config, st store.Store, pub Publisher) (*Agent, error) {
	zones := zone.NewCache()
	adv, err := advisory.New(cfg.Advisory.Condition, cfg.AdvisoryEvery(), cfg.HaulerRoles, zones)
	if err != nil {
		return nil, fmt.Errorf("advisory: %w", err)
	}
	if st == nil {
		st = store.Nop{}
	}
	if pub == nil {
		pub = nopPublisher{}
	}
	a := &Agent{
		Conn:         conn,
		zones:        zones,
		classifier:   classify.New("", cfg.Allies),
		advisory:     adv,
		store:        st,
		pub:          pub,
		persistEvery: cfg.State.PersistEveryTicks,
	}
	a.Alloc = defense.NewAllocator(zones, a.classifier, adv, commander{conn: conn}, cfg.Tuning())
	return a, nil
}

// HandleHello identifies the player and restores its saved records before the
// first tick arrives.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}
	if hello.Player == "" {
		return nil, fmt.Errorf("hello without player")
	}

	a.Player = hello.Player
	a.Conn.Player = hello.Player
	a.classifier.SetSelf(hello.Player)
	if len(hello.Allies) > 0 {
		a.classifier.SetAllies(hello.Allies)
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	records, err := a.store.Load(ctx, a.Player)
	if err != nil {
		slog.Error("failed to restore territory state", "player", a.Player, "error", err)
	} else {
		a.Alloc.Import(records)
	}
	slog.Info("player identified", "player", a.Player, "allies", len(hello.Allies), "restored", len(records))

	return ack(0)
}

// HandleGameState runs one allocation tick.
func (a *Agent) HandleGameState(env ipc.Envelope) (*ipc.Envelope, error) {
	var gs model.GameState
	if err := env.Decode(&gs); err != nil {
		return nil, err
	}
	if a.Player == "" {
		slog.Warn("game state before hello", "tick", gs.Tick)
	}

	change := a.zones.Update(gs.Tick, gs.Territories)
	for _, name := range change.Lost {
		a.Alloc.Forget(name)
		a.advisory.Forget(name)
	}

	cur := takeSnapshot(a.zones, a.classifier.IsHostile)
	for _, e := range detectEvents(gs.Tick, change, cur, a.prev) {
		slog.Info("territory event", "kind", e.Kind, "tick", e.Tick, "territory", e.Territory, "detail", e.Detail)
		a.pub.Announce(e.Tick, string(e.Kind), e.Territory, e.Detail)
	}
	a.prev = &cur

	rep := a.Alloc.RunAllocation()
	slog.Debug("tick allocated", "player", a.Player, "tick", gs.Tick, "territories", len(rep.Decisions))
	a.pub.Publish(rep)

	if a.persistEvery > 0 && (gs.Tick < a.lastPersist || gs.Tick-a.lastPersist >= a.persistEvery) {
		a.persist(gs.Tick)
	}
	return ack(gs.Tick)
}

// HandleActionResult applies the game's verdict on an earlier turret command.
func (a *Agent) HandleActionResult(env ipc.Envelope) (*ipc.Envelope, error) {
	var res ipc.ActionResultMessage
	if err := env.Decode(&res); err != nil {
		return nil, err
	}
	switch res.Code {
	case ipc.CodeOK:
	case ipc.CodeNotInRange:
		slog.Debug("turret target out of range", "territory", res.Territory, "action", res.Action, "target", res.Target)
	case ipc.CodeInvalidTarget:
		a.Alloc.Reject(res.Territory, defense.Action(res.Action), res.Target)
	default:
		slog.Warn("unknown action result code", "code", res.Code, "territory", res.Territory)
	}
	return nil, nil
}

// Close saves the session's records. Call it once the read loop has returned.
func (a *Agent) Close() {
	if a.Player == "" {
		return
	}
	a.persist(a.zones.Tick())
	slog.Info("session closed", "player", a.Player)
}

func (a *Agent) persist(tick int) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := a.store.Save(ctx, a.Player, tick, a.Alloc.Export()); err != nil {
		slog.Error("failed to persist territory state", "player", a.Player, "tick", tick, "error", err)
		return
	}
	a.lastPersist = tick
}

func ack(tick int) (*ipc.Envelope, error) {
	env, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Tick: tick})
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// commander turns allocator intents into turret commands on the connection.
// Results come back later as action_result messages.
type commander struct {
	conn *ipc.Connection
}

var commandTypes = map[defense.Action]string{
	defense.ActionAttack: ipc.TypeTurretAttack,
	defense.ActionHeal:   ipc.TypeTurretHeal,
	defense.ActionRepair: ipc.TypeTurretRepair,
}

func (c commander) Issue(in defense.Intent) error {
	msgType, ok := commandTypes[in.Action]
	if !ok {
		return fmt.Errorf("unknown action %q", in.Action)
	}
	return c.conn.Send(msgType, ipc.TurretCommand{
		Territory: in.Territory,
		TurretID:  in.Turret,
		TargetID:  in.Target,
	})
}

type nopPublisher struct{}

func (nopPublisher) Publish(defense.Report) {}
func (nopPublisher) Announce(int, string, string, string) {}
