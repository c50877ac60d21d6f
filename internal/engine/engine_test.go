package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
	"github.com/MRamiBalles/babyturt/internal/domain/player"
	"github.com/MRamiBalles/babyturt/internal/events"
	"github.com/MRamiBalles/babyturt/internal/platform/metrics"
)

func TestNamedTagOnBabyWolf(t *testing.T) {
	h := newHarness(t, true)
	h.join("steve", player.GameModeSurvival, namedTag("Spike", 1))
	wolf := h.spawnBaby(entity.TypeWolf, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	wolf.HeadHeight = 0.75
	h.step(10)

	if err := h.world.InteractWithEntity("steve", wolf.ID); err != nil {
		t.Fatalf("interact: %v", err)
	}

	if !h.flag(wolf.ID) {
		t.Error("Expected stored flag to be true")
	}
	if !h.engine.Cache().Contains(wolf.ID) {
		t.Error("Expected cache to contain the wolf")
	}
	if len(h.sink.sounds) != 0 || h.sim.totalBorn() != 0 {
		t.Fatal("Expected signal and feedback to wait for the next tick")
	}

	h.step(1)

	if h.sim.born[wolf.ID] != 1 {
		t.Errorf("Expected one born signal, got %d", h.sim.born[wolf.ID])
	}
	if wolf.Ageable.GrowthTicks != entity.DefaultGrowthDuration {
		t.Errorf("Expected countdown restarted, got %d", wolf.Ageable.GrowthTicks)
	}
	if len(h.sink.sounds) != 1 || len(h.sink.particles) != 1 {
		t.Fatalf("Expected one sound and one particle, got %d and %d", len(h.sink.sounds), len(h.sink.particles))
	}
	want := entity.Vec3{X: 2.5, Y: 1 + 0.75 + 0.5, Z: 0.5}
	s := h.sink.sounds[0]
	if s.name != FeedbackOn.Sound || s.at != want || s.pitch != 0.4 {
		t.Errorf("Expected %s at %v pitch 0.4, got %s at %v pitch %v", FeedbackOn.Sound, want, s.name, s.at, s.pitch)
	}
	if p := h.sink.particles[0]; p.name != FeedbackOn.Particle || p.at != want {
		t.Errorf("Expected %s at %v, got %s at %v", FeedbackOn.Particle, want, p.name, p.at)
	}
	if got := testutil.ToFloat64(h.metrics.TagTransitions.WithLabelValues(metrics.DirectionOn)); got != 1 {
		t.Errorf("Expected one on transition, got %v", got)
	}
	if tagged := h.engine.EventLog().GetByType(events.EventTypeEntityTagged); len(tagged) != 1 {
		t.Errorf("Expected one ENTITY_TAGGED audit event, got %d", len(tagged))
	}
}

func TestUnnamedTagOnTaggedWolf(t *testing.T) {
	h := newHarness(t, true)
	p := h.join("steve", player.GameModeSurvival, namedTag("Spike", 1))
	wolf := h.spawnBaby(entity.TypeWolf, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	_ = h.world.InteractWithEntity("steve", wolf.ID)
	h.step(1)
	bornBefore := h.sim.totalBorn()

	p.Held = plainTag(1)
	if err := h.world.InteractWithEntity("steve", wolf.ID); err != nil {
		t.Fatalf("interact: %v", err)
	}
	h.step(1)

	if h.flag(wolf.ID) {
		t.Error("Expected stored flag to be false")
	}
	if h.engine.Cache().Contains(wolf.ID) {
		t.Error("Expected wolf to leave the cache")
	}
	if h.sim.totalBorn() != bornBefore {
		t.Errorf("Expected no born signal on untag, got %d more", h.sim.totalBorn()-bornBefore)
	}
	last := h.sink.sounds[len(h.sink.sounds)-1]
	if last.name != FeedbackOff.Sound {
		t.Errorf("Expected %s, got %s", FeedbackOff.Sound, last.name)
	}
	if lp := h.sink.particles[len(h.sink.particles)-1]; lp.name != FeedbackOff.Particle {
		t.Errorf("Expected %s, got %s", FeedbackOff.Particle, lp.name)
	}
}

func TestTagTwiceIsIdempotent(t *testing.T) {
	h := newHarness(t, true)
	h.join("steve", player.GameModeSurvival, namedTag("Spike", 2))
	wolf := h.spawnBaby(entity.TypeWolf, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})

	_ = h.world.InteractWithEntity("steve", wolf.ID)
	_ = h.world.InteractWithEntity("steve", wolf.ID)
	h.step(1)

	if h.engine.Cache().Len() != 1 || !h.flag(wolf.ID) {
		t.Errorf("Expected one tagged entity, got len %d flag %v", h.engine.Cache().Len(), h.flag(wolf.ID))
	}
	if h.sim.born[wolf.ID] != 1 {
		t.Errorf("Expected a single born signal, got %d", h.sim.born[wolf.ID])
	}
	if len(h.sink.sounds) != 1 {
		t.Errorf("Expected feedback once, got %d", len(h.sink.sounds))
	}
}

func TestTagUntagRoundTrip(t *testing.T) {
	h := newHarness(t, true)
	p := h.join("alex", player.GameModeCreative, namedTag("Shelly", 1))
	turtle := h.spawnBaby(entity.TypeTurtle, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})

	_ = h.world.InteractWithEntity("alex", turtle.ID)
	p.Held = plainTag(1)
	_ = h.world.InteractWithEntity("alex", turtle.ID)
	h.step(1)

	if h.flag(turtle.ID) || h.engine.Cache().Len() != 0 {
		t.Errorf("Expected pre-tag state, got flag %v len %d", h.flag(turtle.ID), h.engine.Cache().Len())
	}
	if got := testutil.ToFloat64(h.metrics.TaggedEntities); got != 0 {
		t.Errorf("Expected tagged gauge at 0, got %v", got)
	}
}

func TestReloadRestoresTaggedEntities(t *testing.T) {
	h := newHarness(t, true)
	h.join("steve", player.GameModeCreative, namedTag("Spike", 1))
	wolf := h.spawnBaby(entity.TypeWolf, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	cow := h.spawnBaby(entity.TypeCow, entity.Vec3{X: 6.5, Y: 1, Z: 0.5})
	_ = h.world.InteractWithEntity("steve", wolf.ID)

	if err := h.props.SaveEntities(h.ctx, h.world.Snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	h.world.Unload()

	if h.engine.Cache().Len() != 0 {
		t.Fatalf("Expected unload to empty the cache, got %d", h.engine.Cache().Len())
	}
	if !h.flag(wolf.ID) {
		t.Fatal("Expected the flag to survive unload")
	}

	if _, err := h.world.Load(h.ctx, h.props); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !h.engine.Cache().Contains(wolf.ID) {
		t.Error("Expected wolf back in the cache after reload")
	}
	if h.engine.Cache().Contains(cow.ID) {
		t.Error("Expected untagged cow to stay out of the cache")
	}
}

func TestExcludedCategoryNeverCached(t *testing.T) {
	h := newHarness(t, true)
	drop := entity.New(entity.TypeItem, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	drop.Ageable = entity.NewBaby(0)
	if err := h.props.SetBool(h.ctx, drop.ID, TaggedKey, true); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	_ = h.world.SpawnEntity(drop)

	if h.engine.Cache().Contains(drop.ID) {
		t.Error("Expected excluded spawn to stay out of the cache")
	}

	h.join("steve", player.GameModeSurvival, namedTag("Spike", 1))
	_ = h.world.InteractWithEntity("steve", drop.ID)
	if h.engine.Cache().Len() != 0 {
		t.Error("Expected excluded entity to ignore tagging")
	}
}

func TestNonAgeableIgnored(t *testing.T) {
	h := newHarness(t, true)
	h.join("steve", player.GameModeSurvival, namedTag("Spike", 1))
	stand := entity.New("minecraft:armor_stand", entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	_ = h.world.SpawnEntity(stand)

	_ = h.world.InteractWithEntity("steve", stand.ID)
	h.step(1)

	if h.engine.Cache().Len() != 0 || h.flag(stand.ID) || len(h.sink.sounds) != 0 {
		t.Error("Expected interaction with a non-ageable entity to be a no-op")
	}
}

func TestNotificationOnceForManySpawns(t *testing.T) {
	h := newHarness(t, true)
	h.join("steve", player.GameModeSurvival, nil)
	h.join("alex", player.GameModeSurvival, nil)

	if h.engine.Status().State != StateRunning.String() {
		t.Fatalf("Expected running, got %s", h.engine.Status().State)
	}
	h.step(int(NotifyDelay) - 1)
	if len(h.sink.chat) != 0 {
		t.Fatalf("Expected no notification before %d ticks", NotifyDelay)
	}
	h.step(100)

	if len(h.sink.chat) != 1 {
		t.Fatalf("Expected exactly one notification, got %v", h.sink.chat)
	}
	want := "§7Baby§2Turt §7Loaded §8[0 entities tagged]"
	if h.sink.chat[0] != want {
		t.Errorf("Expected %q, got %q", want, h.sink.chat[0])
	}
	if sweeps := h.engine.EventLog().GetByType(events.EventTypeGrowthSweep); len(sweeps) != 1 {
		t.Errorf("Expected one immediate sweep, got %d", len(sweeps))
	}
}

func TestBootstrapSweepsLoadedEntities(t *testing.T) {
	h := newHarness(t, true)
	wolf := entity.New(entity.TypeWolf, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	wolf.Ageable = entity.NewBaby(0)
	wolf.Ageable.GrowthTicks = 5
	_ = h.props.SetBool(h.ctx, wolf.ID, TaggedKey, true)
	_ = h.props.SaveEntities(h.ctx, []entity.Entity{*wolf})
	if _, err := h.world.Load(h.ctx, h.props); err != nil {
		t.Fatalf("load: %v", err)
	}

	h.join("steve", player.GameModeSurvival, nil)

	live, _ := h.world.Entity(wolf.ID)
	if live.Ageable.GrowthTicks != entity.DefaultGrowthDuration {
		t.Errorf("Expected stale countdown corrected at bootstrap, got %d", live.Ageable.GrowthTicks)
	}
	h.step(int(NotifyDelay))
	if h.sink.chat[0] != "§7Baby§2Turt §7Loaded §8[1 entities tagged]" {
		t.Errorf("Unexpected notification %q", h.sink.chat[0])
	}
}

func TestTaggedBabyNeverMatures(t *testing.T) {
	h := newHarness(t, true)
	h.join("steve", player.GameModeCreative, namedTag("Spike", 1))
	tagged := h.spawnBaby(entity.TypeCow, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	free := h.spawnBaby(entity.TypeCow, entity.Vec3{X: 2.5, Y: 1, Z: 40})
	_ = h.world.InteractWithEntity("steve", tagged.ID)

	h.step(int(3 * GrowthResetInterval))

	if !tagged.IsBaby() {
		t.Error("Expected tagged cow to stay a baby")
	}
	if free.IsBaby() {
		t.Error("Expected untagged cow to grow up")
	}
	if matured := h.engine.EventLog().GetByType(events.EventTypeEntityGrewUp); len(matured) != 1 || matured[0].TargetID != string(free.ID) {
		t.Errorf("Expected only the untagged cow to mature, got %v", matured)
	}
}

func TestAntiCheeseResetsOnNonConsumingInteraction(t *testing.T) {
	h := newHarness(t, true)
	p := h.join("steve", player.GameModeSurvival, namedTag("Spike", 1))
	wolf := h.spawnBaby(entity.TypeWolf, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	_ = h.world.InteractWithEntity("steve", wolf.ID)
	h.step(1)

	p.Held = &item.Stack{TypeID: item.TypeStick, Amount: 3}
	_ = h.world.InteractWithEntity("steve", wolf.ID)
	h.step(1)
	if got := testutil.ToFloat64(h.metrics.BornSignals.WithLabelValues(metrics.ReasonFeed)); got != 1 {
		t.Errorf("Expected a feed reset for a non-consuming interaction, got %v", got)
	}

	// Feeding consumes the stack, so no reset is due.
	p.Held = &item.Stack{TypeID: item.TypeBone, Amount: 3}
	_ = h.world.InteractWithEntity("steve", wolf.ID)
	h.step(1)
	if got := testutil.ToFloat64(h.metrics.BornSignals.WithLabelValues(metrics.ReasonFeed)); got != 1 {
		t.Errorf("Expected consuming interaction to be ignored, got %v", got)
	}

	p.GameMode = player.GameModeCreative
	p.Held = &item.Stack{TypeID: item.TypeBone, Amount: 3}
	_ = h.world.InteractWithEntity("steve", wolf.ID)
	h.step(1)
	if got := testutil.ToFloat64(h.metrics.BornSignals.WithLabelValues(metrics.ReasonFeed)); got != 1 {
		t.Errorf("Expected creative players to be skipped, got %v", got)
	}
}

func TestAimUntagPicksClosest(t *testing.T) {
	h := newHarness(t, true)
	p := h.join("alex", player.GameModeCreative, namedTag("Shelly", 1))
	near := h.spawnBaby(entity.TypeTurtle, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	far := h.spawnBaby(entity.TypeTurtle, entity.Vec3{X: 4.5, Y: 1, Z: 0.5})
	_ = h.world.InteractWithEntity("alex", near.ID)
	_ = h.world.InteractWithEntity("alex", far.ID)

	p.Held = plainTag(1)
	if err := h.world.UseItem("alex"); err != nil {
		t.Fatalf("use: %v", err)
	}
	h.step(1)

	if h.engine.Cache().Contains(near.ID) || h.flag(near.ID) {
		t.Error("Expected the nearest turtle to be untagged")
	}
	if !h.engine.Cache().Contains(far.ID) || !h.flag(far.ID) {
		t.Error("Expected the far turtle to stay tagged")
	}
	untagged := h.engine.EventLog().GetByType(events.EventTypeEntityUntagged)
	if len(untagged) != 1 || untagged[0].Payload.(events.TagPayload).Via != viaAim {
		t.Errorf("Expected one aim untag, got %v", untagged)
	}
}

func TestAimUntagDisabled(t *testing.T) {
	h := newHarness(t, false)
	p := h.join("alex", player.GameModeCreative, namedTag("Shelly", 1))
	turtle := h.spawnBaby(entity.TypeTurtle, entity.Vec3{X: 2.5, Y: 1, Z: 0.5})
	_ = h.world.InteractWithEntity("alex", turtle.ID)

	p.Held = plainTag(1)
	_ = h.world.UseItem("alex")
	h.step(1)

	if !h.engine.Cache().Contains(turtle.ID) {
		t.Error("Expected aim untag to be off")
	}
}

func TestAimUntagOutOfReach(t *testing.T) {
	h := newHarness(t, true)
	p := h.join("alex", player.GameModeCreative, namedTag("Shelly", 1))
	turtle := h.spawnBaby(entity.TypeTurtle, entity.Vec3{X: 9.5, Y: 1, Z: 0.5})
	_ = h.world.InteractWithEntity("alex", turtle.ID)

	p.Held = plainTag(1)
	_ = h.world.UseItem("alex")
	h.step(1)

	if !h.engine.Cache().Contains(turtle.ID) {
		t.Error("Expected a turtle beyond reach to stay tagged")
	}
}

func TestGrewUpWhileTaggedIsAudited(t *testing.T) {
	h := newHarness(t, true)
	wolf := h.spawnBaby(entity.TypeWolf, entity.Vec3{})
	h.engine.Cache().Restore(wolf.ID)

	h.engine.Deliver(events.New(events.EventTypeEntityGrewUp, events.PhaseAfter, events.ActorSystem, string(wolf.ID),
		events.EntityPayload{EntityID: wolf.ID, TypeID: wolf.TypeID}, 0))

	if got := h.engine.EventLog().GetByTarget(string(wolf.ID)); len(got) != 1 {
		t.Errorf("Expected the maturation in the audit log, got %d events", len(got))
	}
}
