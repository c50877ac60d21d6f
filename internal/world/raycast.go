package world

import (
	"math"
	"sort"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
)

// BlockPos addresses one voxel.
type BlockPos struct {
	X, Y, Z int
}

// BlockKind is how a block interacts with view rays.
type BlockKind int

const (
	BlockAir BlockKind = iota
	BlockSolid
	BlockLiquid
	BlockPassable // grass, flowers, torches
)

// BlockAt returns the voxel containing p.
func BlockAt(p entity.Vec3) BlockPos {
	return BlockPos{int(math.Floor(p.X)), int(math.Floor(p.Y)), int(math.Floor(p.Z))}
}

// SetBlock places a block. BlockAir clears it.
func (w *World) SetBlock(pos BlockPos, kind BlockKind) {
	if kind == BlockAir {
		delete(w.blocks, pos)
		return
	}
	w.blocks[pos] = kind
}

// Block returns the block at pos.
func (w *World) Block(pos BlockPos) BlockKind {
	return w.blocks[pos]
}

// RaycastOptions filters a view-direction query.
type RaycastOptions struct {
	MaxDistance           float64
	IncludeLiquidBlocks   bool // Liquids stop the ray
	IncludePassableBlocks bool // Passable blocks stop the ray
	ExcludeTypes          []string
}

// Hit is one entity along a view ray.
type Hit struct {
	Entity   *entity.Entity
	Distance float64
}

const (
	defaultRayDistance = 64.0
	maxRayDistance     = 512.0
	hitboxHalfWidth    = 0.5
	hitboxHeadroom     = 0.25
)

// EntitiesFromViewDirection returns the entities a player is looking at,
// nearest first, up to the first occluding block.
func (w *World) EntitiesFromViewDirection(playerID string, opts RaycastOptions) []Hit {
	p, ok := w.players[playerID]
	if !ok {
		return nil
	}
	dir := p.ViewDirection.Normalize()
	if dir == (entity.Vec3{}) {
		return nil
	}
	maxDist := opts.MaxDistance
	if maxDist <= 0 || math.IsNaN(maxDist) {
		maxDist = defaultRayDistance
	}
	maxDist = math.Min(maxDist, maxRayDistance)
	if d, hit := w.blockDistance(p.Location, dir, maxDist, opts); hit {
		maxDist = d
	}

	excluded := make(map[string]struct{}, len(opts.ExcludeTypes))
	for _, t := range opts.ExcludeTypes {
		excluded[t] = struct{}{}
	}

	var hits []Hit
	for _, id := range w.order {
		e := w.entities[id]
		if e.Dimension != p.Dimension {
			continue
		}
		if _, skip := excluded[e.TypeID]; skip {
			continue
		}
		boxMin := e.Location.Sub(entity.Vec3{X: hitboxHalfWidth, Z: hitboxHalfWidth})
		boxMax := e.Location.Add(entity.Vec3{X: hitboxHalfWidth, Y: e.HeadHeight + hitboxHeadroom, Z: hitboxHalfWidth})
		t, ok := intersectAABB(p.Location, dir, boxMin, boxMax)
		if !ok || t > maxDist {
			continue
		}
		hits = append(hits, Hit{Entity: e, Distance: t})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

func (w *World) occludes(kind BlockKind, opts RaycastOptions) bool {
	switch kind {
	case BlockSolid:
		return true
	case BlockLiquid:
		return opts.IncludeLiquidBlocks
	case BlockPassable:
		return opts.IncludePassableBlocks
	default:
		return false
	}
}

// blockDistance walks the voxel grid along the ray and returns the distance
// to the first occluding block. An origin outside the border occludes at once.
func (w *World) blockDistance(origin, dir entity.Vec3, maxDist float64, opts RaycastOptions) (float64, bool) {
	if !InBounds(origin) || !dir.IsFinite() {
		return 0, true
	}
	pos := BlockAt(origin)
	if w.occludes(w.blocks[pos], opts) {
		return 0, true
	}

	step := [3]int{}
	tMax := [3]float64{}
	tDelta := [3]float64{}
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	cell := [3]int{pos.X, pos.Y, pos.Z}

	for i := 0; i < 3; i++ {
		switch {
		case d[i] > 0:
			step[i] = 1
			tMax[i] = (float64(cell[i]+1) - o[i]) / d[i]
			tDelta[i] = 1 / d[i]
		case d[i] < 0:
			step[i] = -1
			tMax[i] = (o[i] - float64(cell[i])) / -d[i]
			tDelta[i] = 1 / -d[i]
		default:
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
		}
	}

	// A ray of length maxDist crosses at most one cell boundary per unit on each axis.
	maxSteps := 3*int(math.Ceil(maxDist)) + 3
	for n := 0; n < maxSteps; n++ {
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		t := tMax[axis]
		if t > maxDist {
			return 0, false
		}
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
		if w.occludes(w.blocks[BlockPos{cell[0], cell[1], cell[2]}], opts) {
			return t, true
		}
	}
	return 0, false
}

// intersectAABB is the slab test. It returns the entry distance, zero when
// the origin is inside the box.
func intersectAABB(origin, dir, boxMin, boxMax entity.Vec3) (float64, bool) {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{boxMin.X, boxMin.Y, boxMin.Z}
	hi := [3]float64{boxMax.X, boxMax.Y, boxMax.Z}

	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tNear = math.Max(tNear, t1)
		tFar = math.Min(tFar, t2)
		if tNear > tFar {
			return 0, false
		}
	}
	if tFar < 0 {
		return 0, false
	}
	return math.Max(tNear, 0), true
}
