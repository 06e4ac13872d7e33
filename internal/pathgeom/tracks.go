package pathgeom

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/airace/internal/geom"
)

// TrackSpec parameterizes the built-in track generators.
type TrackSpec struct {
	Segments int     `yaml:"segments"`
	Radius   float64 `yaml:"radius"`
	Altitude float64 `yaml:"altitude"`
	Height   float64 `yaml:"height"`
}

// DefaultTrackSpec matches the preset race course.
func DefaultTrackSpec() TrackSpec {
	return TrackSpec{Segments: 10, Radius: 400, Altitude: 120, Height: 40}
}

type generator func(spec TrackSpec) []Waypoint

var generators = map[string]generator{
	"oval":    ovalWaypoints,
	"figure8": figureEightWaypoints,
	"slalom":  slalomWaypoints,
}

// Track builds a named built-in track.
func Track(name string, spec TrackSpec) (*SmoothPath, error) {
	gen, ok := generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown track: %s (available: %v)", name, TrackNames())
	}
	if spec.Segments < 1 {
		return nil, fmt.Errorf("track %s: segments must be positive, got %d", name, spec.Segments)
	}
	return NewSmoothPath(gen(spec)), nil
}

// TrackNames lists the built-in tracks in sorted order.
func TrackNames() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ovalWaypoints(spec TrackSpec) []Waypoint {
	wps := make([]Waypoint, spec.Segments)
	for i := range wps {
		a := 2 * math.Pi * float64(i) / float64(spec.Segments)
		wps[i] = Waypoint{Position: geom.Vec3{
			spec.Radius * math.Cos(a),
			spec.Altitude + spec.Height*math.Sin(2*a),
			0.6 * spec.Radius * math.Sin(a),
		}}
	}
	return wps
}

// figure-eight lobes cross at the origin at different altitudes
func figureEightWaypoints(spec TrackSpec) []Waypoint {
	wps := make([]Waypoint, spec.Segments)
	for i := range wps {
		a := 2 * math.Pi * float64(i) / float64(spec.Segments)
		wps[i] = Waypoint{Position: geom.Vec3{
			spec.Radius * math.Sin(a),
			spec.Altitude + spec.Height*math.Cos(a),
			spec.Radius * math.Sin(a) * math.Cos(a),
		}}
	}
	return wps
}

func slalomWaypoints(spec TrackSpec) []Waypoint {
	wps := make([]Waypoint, spec.Segments)
	for i := range wps {
		a := 2 * math.Pi * float64(i) / float64(spec.Segments)
		r := spec.Radius
		if i%2 == 1 {
			r *= 0.75
		}
		wps[i] = Waypoint{Position: geom.Vec3{
			r * math.Cos(a),
			spec.Altitude,
			r * math.Sin(a),
		}}
	}
	return wps
}
