package report

import (
	"time"

	"github.com/AngelCh415/adinsights/internal/models"
)

type SectionKind string

const (
	SectionMeta    SectionKind = "meta"
	SectionSummary SectionKind = "summary"
	SectionTable   SectionKind = "table"
)

type Align string

const (
	AlignLeft  Align = "L"
	AlignRight Align = "R"
)

type Pair struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Column carries a relative width hint; exporters scale hints to the page.
type Column struct {
	Header string  `json:"header"`
	Width  float64 `json:"width"`
	Align  Align   `json:"align"`
}

type Table struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Section is either a key/value block (Pairs) or a Table. NewPage asks the
// paginated exporter to start the section on a fresh page.
type Section struct {
	Kind    SectionKind `json:"kind"`
	Heading string      `json:"heading"`
	Pairs   []Pair      `json:"pairs,omitempty"`
	Table   *Table      `json:"table,omitempty"`
	NewPage bool        `json:"new_page,omitempty"`
}

// Document is the presentation-ready form of a report. It has no page count:
// pages only exist once an exporter lays it out.
type Document struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	GeneratedAt time.Time      `json:"generated_at"`
	Period      *models.Period `json:"period,omitempty"`
	Sections    []Section      `json:"sections"`
}
