package engine

import (
	"context"
	"testing"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
	"github.com/MRamiBalles/babyturt/internal/domain/player"
	"github.com/MRamiBalles/babyturt/internal/infra/storage"
	"github.com/MRamiBalles/babyturt/internal/platform/logger"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
	"github.com/MRamiBalles/babyturt/internal/world"
)

// countingSim counts born signals the host accepted.
type countingSim struct {
	*world.World
	born map[entity.ID]int
}

func (s *countingSim) TriggerEvent(id entity.ID, name string) error {
	err := s.World.TriggerEvent(id, name)
	if err == nil && name == world.EventEntityBorn {
		s.born[id]++
	}
	return err
}

func (s *countingSim) totalBorn() int {
	n := 0
	for _, c := range s.born {
		n += c
	}
	return n
}

type played struct {
	name  string
	at    entity.Vec3
	pitch float64
}

type recordingSink struct {
	sounds    []played
	particles []played
	chat      []string
}

func (s *recordingSink) PlaySound(_, sound string, at entity.Vec3, pitch float64) {
	s.sounds = append(s.sounds, played{name: sound, at: at, pitch: pitch})
}

func (s *recordingSink) SpawnParticle(_, particle string, at entity.Vec3) {
	s.particles = append(s.particles, played{name: particle, at: at})
}

func (s *recordingSink) SendMessage(text string) {
	s.chat = append(s.chat, text)
}

type harness struct {
	t       *testing.T
	ctx     context.Context
	world   *world.World
	sim     *countingSim
	sink    *recordingSink
	props   *storage.MemoryStore
	metrics *metrics.Collector
	sched   *Scheduler
	engine  *Engine
}

func newHarness(t *testing.T, aimUntag bool) *harness {
	t.Helper()
	log := logger.Discard()
	m := metrics.New()
	sched := NewScheduler(TickRate, log, m)
	w := world.New(log)
	sim := &countingSim{World: w, born: make(map[entity.ID]int)}
	sink := &recordingSink{}
	props := storage.NewMemoryStore()

	e := NewEngine(Deps{
		Context:   context.Background(),
		Sim:       sim,
		Props:     props,
		Scheduler: sched,
		Logger:    log,
		Metrics:   m,
		AimUntag:  aimUntag,
	})
	w.SetListener(e)
	w.SetSink(sink)
	sched.AddHook(w.Tick)

	return &harness{
		t:       t,
		ctx:     context.Background(),
		world:   w,
		sim:     sim,
		sink:    sink,
		props:   props,
		metrics: m,
		sched:   sched,
		engine:  e,
	}
}

func (h *harness) step(n int) {
	for i := 0; i < n; i++ {
		h.sched.Step()
	}
}

func (h *harness) spawnBaby(typeID string, at entity.Vec3) *entity.Entity {
	h.t.Helper()
	e := entity.New(typeID, at)
	e.Ageable = entity.NewBaby(entity.DefaultGrowthDuration)
	if err := h.world.SpawnEntity(e); err != nil {
		h.t.Fatalf("spawn %s: %v", typeID, err)
	}
	return e
}

func (h *harness) join(id string, mode player.GameMode, held *item.Stack) *player.Player {
	h.t.Helper()
	p := player.NewPlayer(id, id)
	p.GameMode = mode
	p.Location = entity.Vec3{X: 0.5, Y: 1.5, Z: 0.5}
	p.ViewDirection = entity.Vec3{X: 1}
	if err := h.world.SpawnPlayer(p); err != nil {
		h.t.Fatalf("spawn player: %v", err)
	}
	if err := h.world.SetHeldItem(id, held); err != nil {
		h.t.Fatalf("hold: %v", err)
	}
	return p
}

func (h *harness) flag(id entity.ID) bool {
	h.t.Helper()
	v, err := h.props.GetBool(h.ctx, id, TaggedKey)
	if err != nil {
		h.t.Fatalf("read flag: %v", err)
	}
	return v
}

func namedTag(name string, n int) *item.Stack {
	return &item.Stack{TypeID: item.TypeNameTag, Amount: n, NameTag: name}
}

func plainTag(n int) *item.Stack {
	return &item.Stack{TypeID: item.TypeNameTag, Amount: n}
}
