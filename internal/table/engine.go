package table

import (
	"sort"
	"strings"

	"github.com/AngelCh415/adinsights/internal/models"
)

const DefaultPageSize = 10

// PageSizes are the only page sizes the table offers.
var PageSizes = []int{10, 20, 30, 40, 50}

type Result struct {
	Rows         []models.CampaignRecord `json:"rows"`
	TotalMatched int                     `json:"total_matched"`
	PageIndex    int                     `json:"page_index"`
	PageSize     int                     `json:"page_size"`
	PageCount    int                     `json:"page_count"`
}

type column struct {
	less func(a, b models.CampaignRecord) bool
}

func byFloat(f func(models.CampaignRecord) float64) column {
	return column{less: func(a, b models.CampaignRecord) bool { return f(a) < f(b) }}
}

func byInt(f func(models.CampaignRecord) int) column {
	return column{less: func(a, b models.CampaignRecord) bool { return f(a) < f(b) }}
}

func byText(f func(models.CampaignRecord) string) column {
	return column{less: func(a, b models.CampaignRecord) bool { return norm(f(a)) < norm(f(b)) }}
}

var columns = map[string]column{
	"campaign":    byText(func(r models.CampaignRecord) string { return r.Campaign }),
	"status":      byText(func(r models.CampaignRecord) string { return string(r.Status) }),
	"impressions": byInt(func(r models.CampaignRecord) int { return r.Impressions }),
	"clicks":      byInt(func(r models.CampaignRecord) int { return r.Clicks }),
	"conversions": byInt(func(r models.CampaignRecord) int { return r.Conversions }),
	"ctr":         byFloat(func(r models.CampaignRecord) float64 { return r.CTR }),
	"cost":        byFloat(func(r models.CampaignRecord) float64 { return r.Cost }),
	"revenue":     byFloat(models.CampaignRecord.Revenue),
	"roas":        byFloat(func(r models.CampaignRecord) float64 { return r.ROAS }),
}

// SortableColumn reports whether key names a column Run can sort by.
func SortableColumn(key string) bool {
	_, ok := columns[norm(key)]
	return ok
}

// Run filters, sorts and paginates records. The input slice is never
// modified. Invalid query fields are clamped or ignored, never reported.
func Run(records []models.CampaignRecord, q models.Query) Result {
	matched := Filter(records, q)
	Sort(matched, q.Sort)

	size := SnapPageSize(q.PageSize)
	pages := pageCount(len(matched), size)
	idx := clampPage(q.PageIndex, pages)

	return Result{
		Rows:         paginate(matched, size, idx*size),
		TotalMatched: len(matched),
		PageIndex:    idx,
		PageSize:     size,
		PageCount:    pages,
	}
}

// Filter applies the status and free-text stages and returns a fresh slice.
func Filter(records []models.CampaignRecord, q models.Query) []models.CampaignRecord {
	statuses := make(map[models.Status]struct{}, len(q.Statuses))
	for _, s := range q.Statuses {
		statuses[s] = struct{}{}
	}
	term := norm(q.Search)

	out := make([]models.CampaignRecord, 0, len(records))
	for _, r := range records {
		if len(statuses) > 0 {
			if _, ok := statuses[r.Status]; !ok {
				continue
			}
		}
		if term != "" && !strings.Contains(norm(r.Campaign), term) && !strings.Contains(norm(string(r.Status)), term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders rows in place, stable. Nil spec or an unknown column leaves the
// order untouched.
func Sort(rows []models.CampaignRecord, spec *models.SortSpec) {
	if spec == nil {
		return
	}
	col, ok := columns[norm(spec.Column)]
	if !ok {
		return
	}
	if spec.Desc {
		sort.SliceStable(rows, func(i, j int) bool { return col.less(rows[j], rows[i]) })
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return col.less(rows[i], rows[j]) })
}

// SnapPageSize maps any requested size onto the nearest allowed one; ties go
// to the smaller size.
func SnapPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	best := PageSizes[0]
	for _, s := range PageSizes[1:] {
		if abs(n-s) < abs(n-best) {
			best = s
		}
	}
	return best
}

func pageCount(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total + size - 1) / size
}

func clampPage(idx, pages int) int {
	if idx < 0 || pages == 0 {
		return 0
	}
	if idx >= pages {
		return pages - 1
	}
	return idx
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
