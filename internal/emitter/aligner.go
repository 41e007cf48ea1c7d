package emitter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Class is a column that is padded to a common width within a group of
// consecutive lines.
type Class int

const (
	ClassPortDir Class = iota
	ClassPortType
	ClassPortName
	ClassParamKind
	ClassParamType
	ClassParamName
	ClassDeclType
	ClassConstType
	ClassConstName
	ClassInstName
	ClassInstExpr
	ClassModportDir
	ClassCaseCond
	ClassMemberType
	ClassMemberName
	ClassAssignDst
)

type alignKey struct {
	group string
	class Class
}

// Aligner records the widest text of every column class in every group.
// The first emission pass measures, the second pads.
type Aligner struct {
	widths map[alignKey]int
}

// NewAligner returns an empty aligner.
func NewAligner() *Aligner {
	return &Aligner{widths: make(map[alignKey]int)}
}

// Measure records text as a candidate for the column width.
func (a *Aligner) Measure(group string, class Class, text string) {
	k := alignKey{group, class}
	if w := runewidth.StringWidth(text); w > a.widths[k] {
		a.widths[k] = w
	}
}

// Width returns the measured width of a column.
func (a *Aligner) Width(group string, class Class) int {
	return a.widths[alignKey{group, class}]
}

// Pad right-pads text with spaces to the column width.
func (a *Aligner) Pad(group string, class Class, text string) string {
	n := a.Width(group, class) - runewidth.StringWidth(text)
	if n <= 0 {
		return text
	}
	return text + strings.Repeat(" ", n)
}

// Len returns the number of measured columns.
func (a *Aligner) Len() int { return len(a.widths) }
