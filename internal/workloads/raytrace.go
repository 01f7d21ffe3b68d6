// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package workloads

import (
	"math"
	"math/rand/v2"

	"github.com/jeranaias/rigbench/internal/benchmark"
)

// =============================================================================
// RAY TRACER
// =============================================================================

const (
	traceWidth   = 128
	traceHeight  = 72
	traceSamples = 10
	traceDepth   = 5
)

// Vec3 is a 3-component vector.
type Vec3 struct{ X, Y, Z float64 }

func (a Vec3) Add(b Vec3) Vec3      { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3      { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64   { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Len() float64         { return math.Sqrt(a.Dot(a)) }

// Unit returns a scaled to length 1. The zero vector is returned as is.
func (a Vec3) Unit() Vec3 {
	l := a.Len()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}

// Ray is origin plus direction.
type Ray struct{ Origin, Dir Vec3 }

// At returns the point at parameter t.
func (r Ray) At(t float64) Vec3 { return r.Origin.Add(r.Dir.Scale(t)) }

// Sphere is the only primitive in the scene.
type Sphere struct {
	Center Vec3
	Radius float64
}

type hitRecord struct {
	t      float64
	point  Vec3
	normal Vec3
}

// hit reports the nearest intersection with t in (tMin, tMax).
func (s Sphere) hit(r Ray, tMin, tMax float64, rec *hitRecord) bool {
	oc := r.Origin.Sub(s.Center)
	a := r.Dir.Dot(r.Dir)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius
	disc := b*b - a*c
	if disc <= 0 {
		return false
	}
	sq := math.Sqrt(disc)
	for _, t := range [2]float64{(-b - sq) / a, (-b + sq) / a} {
		if t > tMin && t < tMax {
			rec.t = t
			rec.point = r.At(t)
			rec.normal = rec.point.Sub(s.Center).Scale(1 / s.Radius)
			return true
		}
	}
	return false
}

// Scene is a small diffuse world under a sky gradient.
type Scene struct {
	Spheres []Sphere
}

// DefaultScene is one small sphere resting on a very large one.
func DefaultScene() *Scene {
	return &Scene{Spheres: []Sphere{
		{Center: Vec3{0, 0, -1}, Radius: 0.5},
		{Center: Vec3{0, -100.5, -1}, Radius: 100},
	}}
}

func (s *Scene) hit(r Ray, tMin, tMax float64, rec *hitRecord) bool {
	var tmp hitRecord
	found := false
	closest := tMax
	for _, sp := range s.Spheres {
		if sp.hit(r, tMin, closest, &tmp) {
			found = true
			closest = tmp.t
			*rec = tmp
		}
	}
	return found
}

func randomInUnitSphere(rng *rand.Rand) Vec3 {
	for {
		p := Vec3{rng.Float64()*2 - 1, rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		if p.Dot(p) < 1 {
			return p
		}
	}
}

// Trace returns the color seen along r with at most depth bounces.
func (s *Scene) Trace(r Ray, depth int, rng *rand.Rand) Vec3 {
	var rec hitRecord
	attenuation := 1.0
	for ; depth > 0; depth-- {
		if !s.hit(r, 0.001, math.MaxFloat64, &rec) {
			u := r.Dir.Unit()
			t := 0.5 * (u.Y + 1)
			sky := Vec3{1, 1, 1}.Scale(1 - t).Add(Vec3{0.5, 0.7, 1.0}.Scale(t))
			return sky.Scale(attenuation)
		}
		target := rec.point.Add(rec.normal).Add(randomInUnitSphere(rng))
		r = Ray{Origin: rec.point, Dir: target.Sub(rec.point)}
		attenuation *= 0.5
	}
	return Vec3{}
}

// Render traces every pixel of a w by h image with the given sample count
// and returns the sum of all pixel colors.
func (s *Scene) Render(w, h, samples int, rng *rand.Rand) Vec3 {
	var total Vec3
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var col Vec3
			for k := 0; k < samples; k++ {
				u := (float64(x) + rng.Float64()) / float64(w)
				v := (float64(y) + rng.Float64()) / float64(h)
				col = col.Add(s.Trace(Ray{Dir: Vec3{u, v, -1}}, traceDepth, rng))
			}
			total = total.Add(col.Scale(1 / float64(samples)))
		}
	}
	return total
}

func rayTracerWorkload(size int) benchmark.Descriptor {
	return benchmark.Descriptor{
		ID:          IDRayTracer,
		Name:        "Ray Tracing",
		Description: "diffuse path tracer, 128x72 at 10 samples per pixel",
		Category:    benchmark.CategoryStructuredSynthetic,
		Suites:      benchmark.SuiteSingleCore | benchmark.SuiteMultiCore,
		WorkSize:    size,
		Prepare: func(replicas, _ int) (benchmark.RunFunc, error) {
			scene := DefaultScene()
			rngs := make([]*rand.Rand, replicas)
			for r := range rngs {
				rngs[r] = NewReplicaRand(r)
			}
			return func(replica, workSize int) error {
				var total Vec3
				for i := 0; i < workSize; i++ {
					total = scene.Render(traceWidth, traceHeight, traceSamples, rngs[replica])
				}
				if replica == 0 {
					sink.f = total.X
				}
				return nil
			}, nil
		},
	}
}
