// Package model defines shared data structures.
package model

import "strings"

// TestKind identifies one of the screening tests.
type TestKind string

const (
	TestAmsler       TestKind = "amsler"
	TestPHP          TestKind = "php"
	TestSDH          TestKind = "sdh"
	TestMChart       TestKind = "mchart"
	TestCentralField TestKind = "central-field"
	TestReading      TestKind = "reading"
)

var testTitles = map[TestKind]string{
	TestAmsler:       "Amsler grid",
	TestPHP:          "Preferential hyperacuity (PHP)",
	TestSDH:          "Scotoma detection (SDH)",
	TestMChart:       "M-Chart metamorphopsia",
	TestCentralField: "Central field sensitivity",
	TestReading:      "Reading speed",
}

// AllTestKinds returns every test kind in menu order.
func AllTestKinds() []TestKind {
	return []TestKind{TestAmsler, TestPHP, TestSDH, TestMChart, TestCentralField, TestReading}
}

// ParseTestKind resolves a user-supplied test name.
func ParseTestKind(s string) (TestKind, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "central", "centralfield", "central_field":
		return TestCentralField, true
	case "m-chart", "m_chart":
		return TestMChart, true
	}
	kind := TestKind(s)
	_, ok := testTitles[kind]
	return kind, ok
}

// Title returns a human-readable name.
func (k TestKind) Title() string {
	if title, ok := testTitles[k]; ok {
		return title
	}
	return string(k)
}

// Eye is the eye under test.
type Eye string

const (
	EyeRight Eye = "RIGHT"
	EyeLeft  Eye = "LEFT"
)

// ParseEye accepts "right"/"left" in any case, plus the r/l shorthands.
func ParseEye(s string) (Eye, bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "right", "r":
		return EyeRight, true
	case "left", "l":
		return EyeLeft, true
	default:
		return "", false
	}
}

// MarkType classifies a mark placed on the Amsler grid.
type MarkType string

const (
	MarkDistortion   MarkType = "DISTORTION"
	MarkScotomaDark  MarkType = "SCOTOMA_DARK"
	MarkScotomaLight MarkType = "SCOTOMA_LIGHT"
)

// AllMarkTypes returns the mark types in selection order.
func AllMarkTypes() []MarkType {
	return []MarkType{MarkDistortion, MarkScotomaDark, MarkScotomaLight}
}

// Valid reports whether t is a known mark type.
func (t MarkType) Valid() bool {
	switch t {
	case MarkDistortion, MarkScotomaDark, MarkScotomaLight:
		return true
	default:
		return false
	}
}

// Point is a position in normalized grid coordinates, both axes in [0,1].
type Point struct {
	X float64
	Y float64
}

// InUnitSquare reports whether p lies within [0,1]x[0,1].
func (p Point) InUnitSquare() bool {
	return p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1
}

// AmslerMark is a user-placed mark on the grid.
type AmslerMark struct {
	Position Point
	Type     MarkType
}

// Sentence is one line of the reading corpus.
type Sentence struct {
	Text      string
	WordCount int
}
