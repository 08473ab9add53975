// Package sketch is the client side of the whiteboard: the shape model the
// server never looks at, a local shape cache and a sync session that keeps
// the cache in step with a room.
package sketch

import (
	"encoding/json"
	"fmt"
	"math"
)

// Shape kinds as they appear in the "type" field of a payload.
const (
	KindRect    = "rect"
	KindCircle  = "circle"
	KindPencil  = "pencil"
	KindLine    = "line"
	KindArrow   = "arrow"
	KindText    = "text"
	KindDiamond = "diamond"
)

// textWidth and textHeight approximate the box a text shape occupies.
const (
	textWidth  = 100
	textHeight = 20
)

// Shape is one drawn primitive.
type Shape interface {
	Kind() string
	// Hit reports whether (x, y) lies on the shape's outline within tol.
	Hit(x, y, tol float64) bool
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Rect struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Circle struct {
	Type    string  `json:"type"`
	CenterX float64 `json:"centerX"`
	CenterY float64 `json:"centerY"`
	Radius  float64 `json:"radius"`
}

type Pencil struct {
	Type   string  `json:"type"`
	Points []Point `json:"points"`
}

type Line struct {
	Type string  `json:"type"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	X2   float64 `json:"x2"`
	Y2   float64 `json:"y2"`
}

// Arrow is a Line with a head drawn at (X2, Y2).
type Arrow Line

type Text struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Diamond is inscribed in the box at (X, Y) of Width by Height.
type Diamond struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (Rect) Kind() string    { return KindRect }
func (Circle) Kind() string  { return KindCircle }
func (Pencil) Kind() string  { return KindPencil }
func (Line) Kind() string    { return KindLine }
func (Arrow) Kind() string   { return KindArrow }
func (Text) Kind() string    { return KindText }
func (Diamond) Kind() string { return KindDiamond }

func (r Rect) Hit(x, y, tol float64) bool {
	insideX := x >= r.X && x <= r.X+r.Width
	insideY := y >= r.Y && y <= r.Y+r.Height

	onLeft := math.Abs(x-r.X) <= tol && insideY
	onRight := math.Abs(x-(r.X+r.Width)) <= tol && insideY
	onTop := math.Abs(y-r.Y) <= tol && insideX
	onBottom := math.Abs(y-(r.Y+r.Height)) <= tol && insideX

	return onLeft || onRight || onTop || onBottom
}

func (c Circle) Hit(x, y, tol float64) bool {
	return math.Abs(math.Hypot(x-c.CenterX, y-c.CenterY)-c.Radius) <= tol
}

func (p Pencil) Hit(x, y, tol float64) bool {
	for _, pt := range p.Points {
		if math.Hypot(x-pt.X, y-pt.Y) <= tol {
			return true
		}
	}
	return false
}

func (l Line) Hit(x, y, tol float64) bool {
	return lineDistance(Point{l.X1, l.Y1}, Point{l.X2, l.Y2}, x, y) <= tol
}

func (a Arrow) Hit(x, y, tol float64) bool {
	return Line(a).Hit(x, y, tol)
}

func (t Text) Hit(x, y, _ float64) bool {
	return x >= t.X && x <= t.X+textWidth && y <= t.Y && y >= t.Y-textHeight
}

func (d Diamond) Hit(x, y, tol float64) bool {
	pts := [4]Point{
		{d.X + d.Width/2, d.Y},
		{d.X + d.Width, d.Y + d.Height/2},
		{d.X + d.Width/2, d.Y + d.Height},
		{d.X, d.Y + d.Height/2},
	}
	for i := range pts {
		if lineDistance(pts[i], pts[(i+1)%4], x, y) <= tol {
			return true
		}
	}
	return false
}

// lineDistance is the distance from (x, y) to the infinite line through a and b.
func lineDistance(a, b Point, x, y float64) float64 {
	length := math.Hypot(b.Y-a.Y, b.X-a.X)
	if length == 0 {
		return math.Hypot(x-a.X, y-a.Y)
	}
	return math.Abs((b.Y-a.Y)*x-(b.X-a.X)*y+b.X*a.Y-b.Y*a.X) / length
}

// Parse decodes a payload into its concrete shape.
func Parse(raw string) (Shape, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &head); err != nil {
		return nil, fmt.Errorf("parse shape: %w", err)
	}

	var s Shape
	var err error
	switch head.Type {
	case KindRect:
		s, err = decode[Rect](raw)
	case KindCircle:
		s, err = decode[Circle](raw)
	case KindPencil:
		s, err = decode[Pencil](raw)
	case KindLine:
		s, err = decode[Line](raw)
	case KindArrow:
		s, err = decode[Arrow](raw)
	case KindText:
		s, err = decode[Text](raw)
	case KindDiamond:
		s, err = decode[Diamond](raw)
	default:
		return nil, fmt.Errorf("unknown shape type %q", head.Type)
	}
	return s, err
}

func decode[T Shape](raw string) (Shape, error) {
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", v.Kind(), err)
	}
	return v, nil
}

// Marshal encodes a shape the way browsers do, with "type" first.
func Marshal(s Shape) (string, error) {
	switch v := s.(type) {
	case Rect:
		v.Type = KindRect
		s = v
	case Circle:
		v.Type = KindCircle
		s = v
	case Pencil:
		v.Type = KindPencil
		if v.Points == nil {
			v.Points = []Point{}
		}
		s = v
	case Line:
		v.Type = KindLine
		s = v
	case Arrow:
		v.Type = KindArrow
		s = v
	case Text:
		v.Type = KindText
		s = v
	case Diamond:
		v.Type = KindDiamond
		s = v
	}

	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", s.Kind(), err)
	}
	return string(data), nil
}
