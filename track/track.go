// Package track derives the geometry of a closed-loop race track from its centerline.
package track

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// LengthEpsilon is the length at or below which a segment is degenerate.
const LengthEpsilon = 0x1p-52 // float64 machine epsilon

// ErrInvalidTrack is returned when a track is constructed with invalid parameters.
var ErrInvalidTrack = errors.New("invalid track")

// Track is a closed-loop centerline plus its cross-section.
// The last centerline point connects back to the first.
type Track struct {
	centerline    []r2.Vec
	Width         float64
	WallThickness float64
}

// Pose is a position and heading (radians) on the track plane.
type Pose struct {
	Position r2.Vec
	Heading  float64
}

// New creates a track. Width and wall thickness must be strictly positive.
func New(points []r2.Vec, width, wallThickness float64) (*Track, error) {
	if !(width > 0) {
		return nil, fmt.Errorf("%w: width must be > 0, got %v", ErrInvalidTrack, width)
	}
	if !(wallThickness > 0) {
		return nil, fmt.Errorf("%w: wall thickness must be > 0, got %v", ErrInvalidTrack, wallThickness)
	}
	return &Track{
		centerline:    slices.Clone(points),
		Width:         width,
		WallThickness: wallThickness,
	}, nil
}

// FromFlat builds centerline points from a flat list of x y pairs.
func FromFlat(xy []float64) ([]r2.Vec, error) {
	if len(xy)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of coordinates (%d)", ErrInvalidTrack, len(xy))
	}
	points := make([]r2.Vec, 0, len(xy)/2)
	for i := 0; i < len(xy); i += 2 {
		points = append(points, r2.Vec{X: xy[i], Y: xy[i+1]})
	}
	return points, nil
}

// Placeholder returns the built-in irregular loop used for development and tests.
func Placeholder() *Track {
	points := []r2.Vec{
		{X: -320, Y: -180},
		{X: 280, Y: -200},
		{X: 340, Y: 160},
		{X: -260, Y: 220},
		{X: -360, Y: 40},
	}
	t, _ := New(points, 120, 16)
	return t
}

// IsEmpty reports whether the track has no centerline points.
func (t *Track) IsEmpty() bool {
	return len(t.centerline) == 0
}

// Points returns a copy of the centerline points.
func (t *Track) Points() []r2.Vec {
	return slices.Clone(t.centerline)
}

// Segments returns the segments forming the loop, including the one closing
// it from the last point back to the first. Segments whose endpoints are
// within LengthEpsilon of each other are skipped.
func (t *Track) Segments() []Segment {
	n := len(t.centerline)
	if n < 2 {
		return nil
	}
	segments := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		if seg, ok := NewSegment(t.centerline[i], t.centerline[(i+1)%n]); ok {
			segments = append(segments, seg)
		}
	}
	return segments
}

// StartPose returns the start of the first non-degenerate segment and its
// heading. It reports false when the track has no segments.
func (t *Track) StartPose() (Pose, bool) {
	segments := t.Segments()
	if len(segments) == 0 {
		return Pose{}, false
	}
	return Pose{Position: segments[0].Start, Heading: segments[0].Angle}, true
}

// Length returns the total length of the loop.
func (t *Track) Length() float64 {
	total := 0.0
	for _, s := range t.Segments() {
		total += s.Length
	}
	return total
}

// Segment is one edge of the track polyline with its derived geometry.
type Segment struct {
	Start  r2.Vec
	End    r2.Vec
	Mid    r2.Vec
	Dir    r2.Vec  // unit vector from Start to End
	Normal r2.Vec  // Dir rotated +90 degrees (points left)
	Length float64 // always > LengthEpsilon
	Angle  float64 // heading of Dir in radians, (-pi, pi]
}

// NewSegment builds a segment; it reports false when the endpoints are
// closer than LengthEpsilon.
func NewSegment(start, end r2.Vec) (Segment, bool) {
	delta := r2.Sub(end, start)
	length := r2.Norm(delta)
	if length <= LengthEpsilon {
		return Segment{}, false
	}
	dir := r2.Scale(1/length, delta)
	angle := math.Atan2(dir.Y, dir.X)
	if angle == -math.Pi {
		angle = math.Pi
	}
	return Segment{
		Start:  start,
		End:    end,
		Mid:    r2.Add(start, r2.Scale(0.5, delta)),
		Dir:    dir,
		Normal: r2.Vec{X: -dir.Y, Y: dir.X},
		Length: length,
		Angle:  angle,
	}, true
}
