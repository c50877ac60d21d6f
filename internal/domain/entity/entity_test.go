package entity

import "testing"

func TestAgeableAdvance(t *testing.T) {
	a := NewBaby(100)

	if a.Advance(60) {
		t.Fatalf("Expected baby to stay juvenile after 60 ticks")
	}
	if a.GrowthTicks != 40 {
		t.Errorf("Expected 40 ticks left, got %d", a.GrowthTicks)
	}

	a.ResetGrowth()
	if a.GrowthTicks != 100 {
		t.Errorf("Expected reset to full duration, got %d", a.GrowthTicks)
	}

	if !a.Advance(100) {
		t.Fatalf("Expected baby to mature once countdown reaches zero")
	}
	if a.Baby {
		t.Errorf("Expected adult after maturing")
	}
	if a.Advance(10) {
		t.Errorf("Adults must not mature twice")
	}

	a.ResetGrowth()
	if a.GrowthTicks != 0 {
		t.Errorf("Born signal must not restart an adult countdown, got %d", a.GrowthTicks)
	}
}

func TestHeadLocation(t *testing.T) {
	e := New(TypeWolf, Vec3{X: 1, Y: 64, Z: 2})
	e.HeadHeight = 0.75

	got := e.HeadLocation()
	if got.X != 1 || got.Y != 64.75 || got.Z != 2 {
		t.Errorf("Unexpected head location %+v", got)
	}
}
