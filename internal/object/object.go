// Package object holds the drawables of the terminal front-end: falling items,
// the basket, and short-lived effects such as particles and score popups.
package object

import (
	"time"

	"github.com/tomz197/fruitcatch/internal/draw"
)

// Spawner allows objects to spawn new objects during update.
type Spawner interface {
	Spawn(obj Object)
}

// UpdateContext provides all the information an effect needs during update.
type UpdateContext struct {
	Delta   time.Duration
	Spawner Spawner
}

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Canvas *draw.Canvas      // Play field, in engine coordinates
	Writer *draw.ChunkWriter // Text overlays
}

// Object is a drawable and updatable effect.
type Object interface {
	// Update advances the object. Returns true if the object should be removed.
	Update(ctx UpdateContext) (remove bool, err error)

	// Draw draws the object. Shapes go to ctx.Canvas, text to ctx.Writer.
	Draw(ctx DrawContext) error
}

// Releasable is implemented by pooled objects that can be returned to a pool.
type Releasable interface {
	Release()
}

// ReleaseObject releases an object back to its pool if it implements Releasable.
func ReleaseObject(obj Object) {
	if r, ok := obj.(Releasable); ok {
		r.Release()
	}
}

// Layer owns a set of effects. Objects spawned during Update join after the pass.
type Layer struct {
	Objects []Object
	toSpawn []Object
}

// Spawn queues an object to be added after the current update cycle.
func (l *Layer) Spawn(obj Object) {
	l.toSpawn = append(l.toSpawn, obj)
}

// Update advances every object, dropping and releasing the finished ones.
func (l *Layer) Update(delta time.Duration) {
	ctx := UpdateContext{Delta: delta, Spawner: l}
	kept := l.Objects[:0]
	for _, obj := range l.Objects {
		remove, err := obj.Update(ctx)
		if remove || err != nil {
			ReleaseObject(obj)
			continue
		}
		kept = append(kept, obj)
	}
	clear(l.Objects[len(kept):])
	l.Objects = append(kept, l.toSpawn...)
	clear(l.toSpawn)
	l.toSpawn = l.toSpawn[:0]
}

// Draw draws every object, stopping at the first error.
func (l *Layer) Draw(ctx DrawContext) error {
	for _, obj := range l.Objects {
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Reset releases every object.
func (l *Layer) Reset() {
	for _, obj := range l.Objects {
		ReleaseObject(obj)
	}
	for _, obj := range l.toSpawn {
		ReleaseObject(obj)
	}
	clear(l.Objects)
	clear(l.toSpawn)
	l.Objects = l.Objects[:0]
	l.toSpawn = l.toSpawn[:0]
}

// Len returns the number of live objects, including queued spawns.
func (l *Layer) Len() int {
	return len(l.Objects) + len(l.toSpawn)
}

// ShouldRenderBlink reports whether something blinking at frequency Hz with
// remainingTime seconds left should be drawn this frame.
func ShouldRenderBlink(remainingTime float64, frequency float64) bool {
	if remainingTime <= 0 {
		return true
	}
	phase := int(remainingTime * frequency)
	return phase%2 != 0
}
