package rules

import (
	"testing"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
)

func TestIsExcluded(t *testing.T) {
	cases := []struct {
		typeID string
		want   bool
	}{
		{entity.TypeItem, true},
		{entity.TypeXPOrb, true},
		{entity.TypeWolf, false},
		{"minecraft:item_frame", false}, // exact match only
		{"", false},
	}
	for _, c := range cases {
		if got := IsExcluded(c.typeID); got != c.want {
			t.Errorf("IsExcluded(%q) = %v, want %v", c.typeID, got, c.want)
		}
	}
}

func TestTaggable(t *testing.T) {
	wolf := entity.New(entity.TypeWolf, entity.Vec3{})
	wolf.Ageable = entity.NewBaby(0)
	if !Taggable(wolf) {
		t.Errorf("Expected baby wolf to be taggable")
	}

	adultless := entity.New(entity.TypeWolf, entity.Vec3{})
	if Taggable(adultless) {
		t.Errorf("Entity without ageable capability must not be taggable")
	}

	orb := entity.New(entity.TypeXPOrb, entity.Vec3{})
	orb.Ageable = entity.NewBaby(0)
	if Taggable(orb) {
		t.Errorf("Excluded category must not be taggable")
	}

	if Taggable(nil) {
		t.Errorf("nil entity must not be taggable")
	}
}
