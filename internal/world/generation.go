// Arena generation using layered simplex noise.
// A noise field over the grid decides where pickups and hazards go; the
// layout is point-symmetric so both sides start on equal terms.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/broadside/internal/entity"
	"github.com/talgya/broadside/internal/hex"
)

// Owners used by generated matches.
const (
	OwnerLeft  = 1 // starts on the west side facing east
	OwnerRight = 0 // starts on the east side facing west
)

// GenConfig holds arena generation parameters.
type GenConfig struct {
	Seed           int64   // Random seed (0 = random)
	UnitsPerPlayer int     // 1..5
	PickupLevel    float64 // Noise above this may hold a pickup (0.0–1.0)
	HazardLevel    float64 // Noise below this may hold a hazard (0.0–1.0)
	MaxPickups     int     // Per half of the map
	MaxHazards     int     // Per half of the map
	SpawnClearance int     // Cells kept empty around each starting unit
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:           0,
		UnitsPerPlayer: 2,
		PickupLevel:    0.58,
		HazardLevel:    0.38,
		MaxPickups:     8,
		MaxHazards:     5,
		SpawnClearance: 2,
	}
}

// Generate creates a complete arena: mirrored fleets, pickups and hazards.
func Generate(cfg GenConfig) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	noise := opensimplex.NewNormalized(seed)
	rng := rand.New(rand.NewSource(seed + 100))

	w := NewWorld()
	placeFleets(w, cfg.UnitsPerPlayer)

	var pickupCells, hazardCells []hex.Coord
	for row := 0; row < hex.Height; row++ {
		for col := 0; col < hex.Width/2; col++ {
			c := hex.Coord{Col: col, Row: row}
			if nearSpawn(w, c, cfg.SpawnClearance) || nearSpawn(w, mirror(c), cfg.SpawnClearance) {
				continue
			}
			v := octaveNoise(noise, float64(col), float64(row), 3, 0.18, 0.5)
			switch {
			case v > cfg.PickupLevel:
				pickupCells = append(pickupCells, c)
			case v < cfg.HazardLevel:
				hazardCells = append(hazardCells, c)
			}
		}
	}

	rng.Shuffle(len(pickupCells), func(i, j int) { pickupCells[i], pickupCells[j] = pickupCells[j], pickupCells[i] })
	rng.Shuffle(len(hazardCells), func(i, j int) { hazardCells[i], hazardCells[j] = hazardCells[j], hazardCells[i] })

	for i, c := range pickupCells {
		if i >= cfg.MaxPickups {
			break
		}
		qty := 10 + rng.Intn(17)
		w.AddPickup(c, qty)
		w.AddPickup(mirror(c), qty)
	}
	for i, c := range hazardCells {
		if i >= cfg.MaxHazards {
			break
		}
		w.AddHazard(c)
		w.AddHazard(mirror(c))
	}

	return w
}

// placeFleets lines both sides up on opposite edges, evenly spaced by row.
func placeFleets(w *World, perPlayer int) {
	for i := 0; i < perPlayer; i++ {
		row := (i + 1) * hex.Height / (perPlayer + 1)
		left := hex.Coord{Col: 2, Row: row}
		w.AddUnit(entity.NewUnit(w.NextID(), left, OwnerLeft, entity.MaxResource, 0, 0))
		w.AddUnit(entity.NewUnit(w.NextID(), mirror(left), OwnerRight, entity.MaxResource, 0, hex.Opposite(0)))
	}
}

// mirror reflects c through the centre of the map.
func mirror(c hex.Coord) hex.Coord {
	return hex.Coord{Col: hex.Width - 1 - c.Col, Row: hex.Height - 1 - c.Row}
}

func nearSpawn(w *World, c hex.Coord, clearance int) bool {
	for _, u := range w.Units {
		if u.Coord.Distance(c) <= clearance {
			return true
		}
	}
	return false
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	// Shift odd rows half a cell so samples follow the hex layout.
	x += 0.5 * float64(int(y)&1)
	y *= math.Sqrt(3.0) / 2.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
