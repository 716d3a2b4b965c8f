package track

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Side identifies the left or right side of the track, relative to the
// direction of travel.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "L"
	}
	return "R"
}

// sign returns +1 for the left side (along the segment normal) and -1 for the right.
func (s Side) sign() float64 {
	if s == Left {
		return 1
	}
	return -1
}

// Wall is a rectangular barrier alongside one segment, for collider construction.
type Wall struct {
	Segment   int
	Side      Side
	Center    r2.Vec
	Length    float64
	Thickness float64
	Angle     float64
}

// Walls returns a left and a right wall for every segment. Each wall is
// centred half the road width plus half the wall thickness away from the
// segment midpoint along the normal.
func (t *Track) Walls() []Wall {
	segments := t.Segments()
	walls := make([]Wall, 0, 2*len(segments))
	offset := t.Width*0.5 + t.WallThickness*0.5
	for i, seg := range segments {
		for _, side := range []Side{Left, Right} {
			walls = append(walls, Wall{
				Segment:   i,
				Side:      side,
				Center:    r2.Add(seg.Mid, r2.Scale(side.sign()*offset, seg.Normal)),
				Length:    seg.Length,
				Thickness: t.WallThickness,
				Angle:     seg.Angle,
			})
		}
	}
	return walls
}

// Edge is the inner face of a wall: the road boundary alongside one segment.
type Edge struct {
	Segment int
	Side    Side
	A, B    r2.Vec
}

// Edges returns the road boundary lines, two per segment, for ray casting.
func (t *Track) Edges() []Edge {
	segments := t.Segments()
	edges := make([]Edge, 0, 2*len(segments))
	half := t.Width * 0.5
	for i, seg := range segments {
		for _, side := range []Side{Left, Right} {
			shift := r2.Scale(side.sign()*half, seg.Normal)
			edges = append(edges, Edge{
				Segment: i,
				Side:    side,
				A:       r2.Add(seg.Start, shift),
				B:       r2.Add(seg.End, shift),
			})
		}
	}
	return edges
}

// Location is the projection of a point onto the centerline.
type Location struct {
	Segment  int     // index into Segments()
	Along    float64 // distance from the segment start
	Progress float64 // arc length from the start pose, in [0, Length())
	Offset   float64 // signed distance to the closest point, positive to the left
	Distance float64 // unsigned distance to the closest point
}

// Locate projects p onto the nearest point of the centerline. It reports
// false when the track has no segments.
func (t *Track) Locate(p r2.Vec) (Location, bool) {
	segments := t.Segments()
	if len(segments) == 0 {
		return Location{}, false
	}

	best := Location{Distance: math.Inf(1)}
	travelled := 0.0
	for i, seg := range segments {
		rel := r2.Sub(p, seg.Start)
		along := math.Max(0, math.Min(r2.Dot(rel, seg.Dir), seg.Length))
		closest := r2.Add(seg.Start, r2.Scale(along, seg.Dir))
		if d := r2.Norm(r2.Sub(p, closest)); d < best.Distance {
			// Beyond a segment end the closest point is its corner.
			offset := d
			if r2.Cross(seg.Dir, rel) < 0 {
				offset = -d
			}
			best = Location{
				Segment:  i,
				Along:    along,
				Progress: travelled + along,
				Offset:   offset,
				Distance: d,
			}
		}
		travelled += seg.Length
	}
	if best.Progress >= travelled {
		best.Progress -= travelled
	}
	return best, true
}

// GridStartPositions lays out total vehicles in rows of perRow behind the
// start pose. Columns are centred on the start position along the right-hand
// axis and rows step back against the heading. Every pose keeps the start heading.
func GridStartPositions(start Pose, total, perRow int, forwardSpacing, lateralSpacing float64) []Pose {
	if total <= 0 {
		return nil
	}
	perRow = max(perRow, 1)
	forward := r2.Vec{X: math.Cos(start.Heading), Y: math.Sin(start.Heading)}
	right := r2.Vec{X: forward.Y, Y: -forward.X}

	poses := make([]Pose, 0, total)
	for index := 0; index < total; index++ {
		row := index / perRow
		column := index % perRow
		lateral := float64(column) - float64(perRow-1)*0.5
		position := r2.Sub(start.Position, r2.Scale(float64(row)*forwardSpacing, forward))
		position = r2.Add(position, r2.Scale(lateral*lateralSpacing, right))
		poses = append(poses, Pose{Position: position, Heading: start.Heading})
	}
	return poses
}
