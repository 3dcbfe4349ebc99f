package table

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/AngelCh415/adinsights/internal/models"
)

// ParseQuery reads q, status, sort, order, page and page_size. Bad values are
// dropped, so the result is always usable.
func ParseQuery(v url.Values) models.Query {
	q := models.Query{
		Search:    strings.TrimSpace(v.Get("q")),
		Statuses:  statusSet(v.Get("status")),
		PageIndex: atoiDef(v.Get("page"), 0),
		PageSize:  atoiDef(v.Get("page_size"), DefaultPageSize),
	}
	if col := norm(v.Get("sort")); col != "" && SortableColumn(col) {
		q.Sort = &models.SortSpec{Column: col, Desc: norm(v.Get("order")) == "desc"}
	}
	return q
}

// statusSet accepts "active,paused"; "all" or an empty value mean no filter.
func statusSet(s string) []models.Status {
	seen := map[models.Status]struct{}{}
	var out []models.Status
	for _, p := range strings.Split(s, ",") {
		if norm(p) == "all" {
			return nil
		}
		st, ok := models.ParseStatus(p)
		if !ok {
			continue
		}
		if _, dup := seen[st]; dup {
			continue
		}
		seen[st] = struct{}{}
		out = append(out, st)
	}
	return out
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return d
	}
	return v
}
