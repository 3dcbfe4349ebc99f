package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/AngelCh415/adinsights/internal/models"
)

const FormatCSV = "csv"

// Header is the canonical delimited-text schema. Revenue is written as a
// derived column and ignored on parse.
var Header = []string{"Campaign", "Impressions", "Clicks", "Conversions", "CTR (%)", "Cost ($)", "Revenue ($)", "ROAS", "Status"}

var bom = []byte{0xEF, 0xBB, 0xBF}

type CSVOptions struct {
	// BOM prefixes the UTF-8 byte order mark so Excel picks the encoding.
	BOM bool
}

// CSV writes one header line and one line per record with raw numeric values.
// The whole artifact is rendered before anything reaches w.
func CSV(w io.Writer, records []models.CampaignRecord, opts CSVOptions) error {
	var buf bytes.Buffer
	if opts.BOM {
		buf.Write(bom)
	}
	buf.WriteString(strings.Join(Header, ","))
	buf.WriteByte('\n')

	for _, r := range records {
		if !finiteAll(r.CTR, r.Cost, r.ROAS, r.Revenue()) {
			return fail(FormatCSV, fmt.Errorf("campaign %q: %w", r.Campaign, ErrUnsupportedValue))
		}
		fields := []string{
			quote(guardFormula(r.Campaign)),
			strconv.Itoa(r.Impressions),
			strconv.Itoa(r.Clicks),
			strconv.Itoa(r.Conversions),
			raw(r.CTR),
			raw(r.Cost),
			raw(r.Revenue()),
			raw(r.ROAS),
			quote(string(r.Status)),
		}
		buf.WriteString(strings.Join(fields, ","))
		buf.WriteByte('\n')
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fail(FormatCSV, err)
	}
	return nil
}

// ParseCSV reads an artifact produced by CSV back into records (without ids).
func ParseCSV(r io.Reader) ([]models.CampaignRecord, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && bytes.Equal(b, bom) {
		br.Discard(len(bom))
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range Header {
		if head[i] != h {
			return nil, fmt.Errorf("unexpected header %q at column %d", head[i], i)
		}
	}

	var out []models.CampaignRecord
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, row)
	}
}

func parseRow(f []string) (models.CampaignRecord, error) {
	var (
		r   models.CampaignRecord
		err error
	)
	r.Campaign = unguardFormula(f[0])
	ints := []*int{&r.Impressions, &r.Clicks, &r.Conversions}
	for i, p := range ints {
		if *p, err = strconv.Atoi(f[1+i]); err != nil {
			return r, fmt.Errorf("%s: %w", Header[1+i], err)
		}
	}
	if r.CTR, err = strconv.ParseFloat(f[4], 64); err != nil {
		return r, fmt.Errorf("%s: %w", Header[4], err)
	}
	if r.Cost, err = strconv.ParseFloat(f[5], 64); err != nil {
		return r, fmt.Errorf("%s: %w", Header[5], err)
	}
	if r.ROAS, err = strconv.ParseFloat(f[7], 64); err != nil {
		return r, fmt.Errorf("%s: %w", Header[7], err)
	}
	st, ok := models.ParseStatus(f[8])
	if !ok {
		return r, fmt.Errorf("unknown status %q", f[8])
	}
	r.Status = st
	return r, nil
}

func quote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

func raw(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// guardFormula stops spreadsheets from evaluating names like "=SUM(...)".
// A leading quote is escaped too so unguardFormula can always strip one.
func guardFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\'':
		return "'" + s
	}
	return s
}

func unguardFormula(s string) string {
	if strings.HasPrefix(s, "'") {
		return s[1:]
	}
	return s
}

func finiteAll(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
