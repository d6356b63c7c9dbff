package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/streaming"
)

const (
	eyeHeight = 2
	fovDeg    = 70
	aspect    = 16.0 / 9.0
)

// walker is the scripted observer: it moves forward at a fixed speed while
// turning slowly, staying eyeHeight above the terrain.
type walker struct {
	pos    mgl32.Vec3
	yaw    float64 // radians, 0 faces +X
	speed  float32 // blocks per tick
	turn   float64 // radians per tick
	height func(x, z float64) int
}

func (w *walker) forward() mgl32.Vec3 {
	return mgl32.Vec3{float32(math.Cos(w.yaw)), 0, float32(math.Sin(w.yaw))}
}

func (w *walker) step() {
	w.pos = w.pos.Add(w.forward().Mul(w.speed))
	w.yaw = math.Mod(w.yaw+w.turn, 2*math.Pi)
	w.ground()
}

func (w *walker) ground() {
	if w.height != nil {
		w.pos[1] = float32(w.height(float64(w.pos.X()), float64(w.pos.Z())) + eyeHeight)
	}
}

// observer builds the viewpoint for the current tick. The far plane covers
// the streaming radius.
func (w *walker) observer(far float32) streaming.Observer {
	fwd := w.forward()
	proj := mgl32.Perspective(mgl32.DegToRad(fovDeg), aspect, 0.1, far)
	view := mgl32.LookAtV(w.pos, w.pos.Add(fwd), mgl32.Vec3{0, 1, 0})
	f := streaming.FrustumFromMatrix(proj.Mul4(view))
	return streaming.Observer{Position: w.pos, Forward: fwd, Frustum: &f}
}
