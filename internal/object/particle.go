package object

import (
	"math"
	"math/rand"
	"sync"

	"github.com/tomz197/fruitcatch/internal/draw"
)

var particlePool = sync.Pool{
	New: func() any {
		return &Particle{}
	},
}

// Particle is a short-lived pixel flying out of a catch or a hazard hit.
type Particle struct {
	X, Y        float64 // Position in engine coordinates
	VX, VY      float64 // Velocity, units per second
	Gravity     float64 // Downward acceleration, units per second squared
	Lifetime    float64 // Seconds remaining
	MaxLifetime float64
	Drag        float64 // Velocity decay per 60 Hz frame (1.0 = no drag)
	Color       draw.Color
}

// NewParticle creates a single particle from the pool.
func NewParticle(x, y, vx, vy, lifetime float64, col draw.Color) *Particle {
	p := particlePool.Get().(*Particle)
	*p = Particle{
		X:           x,
		Y:           y,
		VX:          vx,
		VY:          vy,
		Gravity:     220,
		Lifetime:    lifetime,
		MaxLifetime: lifetime,
		Drag:        0.95,
		Color:       col,
	}
	return p
}

// Release returns the particle to the pool for reuse.
func (p *Particle) Release() {
	particlePool.Put(p)
}

// SpawnBurst sprays count particles from (x, y), biased upwards like juice from a squashed fruit.
func SpawnBurst(rng *rand.Rand, x, y float64, count int, speed, lifetime float64, col draw.Color, spawner Spawner) {
	if spawner == nil || rng == nil {
		return
	}
	for i := 0; i < count; i++ {
		// Upper half-circle with a little spill below the horizon.
		angle := math.Pi + rng.Float64()*math.Pi*1.2 - 0.1*math.Pi
		spd := speed * (0.5 + rng.Float64())
		life := lifetime * (0.5 + rng.Float64()*0.5)
		spawner.Spawn(NewParticle(x, y, math.Cos(angle)*spd, math.Sin(angle)*spd, life, col))
	}
}

// Update moves the particle and checks lifetime.
func (p *Particle) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()

	p.Lifetime -= dt
	if p.Lifetime <= 0 {
		return true, nil
	}

	dragFactor := math.Pow(p.Drag, dt*60)
	p.VX *= dragFactor
	p.VY = p.VY*dragFactor + p.Gravity*dt

	p.X += p.VX * dt
	p.Y += p.VY * dt
	return false, nil
}

// Draw renders the particle as a pixel, skipping it in the last quarter of its life.
func (p *Particle) Draw(ctx DrawContext) error {
	if p.MaxLifetime > 0 && p.Lifetime/p.MaxLifetime < 0.25 {
		return nil
	}
	ctx.Canvas.SetFloat(p.X, p.Y, p.Color)
	return nil
}
