package export

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/AngelCh415/adinsights/internal/models"
	"github.com/AngelCh415/adinsights/internal/report"
	"github.com/AngelCh415/adinsights/internal/summary"
)

func sample() []models.CampaignRecord {
	return []models.CampaignRecord{
		{ID: "1", Campaign: "Summer Sale 2024", Impressions: 245680, Clicks: 12284, CTR: 5.0, Conversions: 847, Cost: 15420, ROAS: 4.2, Status: models.StatusActive},
		{ID: "2", Campaign: `Brand "Awareness", Q4`, Impressions: 189340, Clicks: 8967, CTR: 4.7, Conversions: 623, Cost: 12890.35, ROAS: 3.8, Status: models.StatusActive},
		{ID: "3", Campaign: "=HYPERLINK(\"x\")", Impressions: 156720, Clicks: 7834, CTR: 0.1 + 0.2, Conversions: 512, Cost: 9870, ROAS: 5.1, Status: models.StatusCompleted},
		{ID: "4", Campaign: "'quoted", Impressions: 0, Clicks: 0, CTR: 0, Conversions: 0, Cost: 0, ROAS: 0, Status: models.StatusPaused},
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCSVHeaderAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sample()[:2], CSVOptions{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if lines[0] != "Campaign,Impressions,Clicks,Conversions,CTR (%),Cost ($),Revenue ($),ROAS,Status" {
		t.Fatalf("header %q", lines[0])
	}
	if lines[1] != `"Summer Sale 2024",245680,12284,847,5,15420,64764.00000000001,4.2,"active"` &&
		lines[1] != `"Summer Sale 2024",245680,12284,847,5,15420,64764,4.2,"active"` {
		t.Fatalf("row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], `"Brand ""Awareness"", Q4",189340,`) {
		t.Fatalf("row %q", lines[2])
	}
}

func TestCSVRoundTrip(t *testing.T) {
	in := sample()
	var buf bytes.Buffer
	if err := CSV(&buf, in, CSVOptions{BOM: true}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), bom) {
		t.Fatal("missing BOM")
	}
	if !strings.Contains(buf.String(), `"'=HYPERLINK(""x"")"`) {
		t.Fatal("formula not guarded")
	}

	out, err := ParseCSV(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d rows, want %d", len(out), len(in))
	}
	for i := range in {
		want := in[i]
		want.ID = ""
		if out[i] != want {
			t.Fatalf("row %d: got %+v, want %+v", i, out[i], want)
		}
	}
}

func TestCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, nil, CSVOptions{}); err != nil {
		t.Fatal(err)
	}
	out, err := ParseCSV(&buf)
	if err != nil || len(out) != 0 {
		t.Fatalf("got %v, %v", out, err)
	}
}

func TestCSVRejectsNonFiniteWithoutPartialOutput(t *testing.T) {
	rs := sample()
	rs[2].Cost = math.Inf(1)
	var buf bytes.Buffer
	err := CSV(&buf, rs, CSVOptions{})

	var ee *Error
	if !errors.As(err, &ee) || ee.Format != FormatCSV {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("partial artifact written: %q", buf.String())
	}
	if !math.IsInf(rs[2].Cost, 1) || rs[0].Campaign != "Summer Sale 2024" {
		t.Fatal("input mutated")
	}
}

func TestCSVWriterFailure(t *testing.T) {
	err := CSV(failWriter{}, sample(), CSVOptions{})
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestParseCSVBadHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,b,c,d,e,f,g,h,i\n"))
	if err == nil {
		t.Fatal("expected header error")
	}
}

func doc(t *testing.T, n int, weekly bool) report.Document {
	t.Helper()
	var rs []models.CampaignRecord
	for i := 0; i < n; i++ {
		rs = append(rs, models.CampaignRecord{
			ID: fmt.Sprint(i), Campaign: fmt.Sprintf("Campaign number %03d with a rather long descriptive name", i),
			Impressions: 1000 * i, Clicks: 50 * i, Conversions: i, CTR: 5, Cost: 100 + float64(i), ROAS: 3.1, Status: models.StatusActive,
		})
	}
	opts := report.Options{Now: func() time.Time { return time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC) }}
	var (
		d   report.Document
		err error
	)
	if weekly {
		d, err = report.ComposeWeekly(rs, summary.Summarize(rs), nil, opts)
	} else {
		d, err = report.Compose(rs, summary.Summarize(rs), opts)
	}
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestPDFSinglePage(t *testing.T) {
	var buf bytes.Buffer
	res, err := PDF(&buf, doc(t, 3, false), PDFOptions{NoCompress: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 1 || res.Bytes != buf.Len() {
		t.Fatalf("unexpected result %+v (len %d)", res, buf.Len())
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatal("not a pdf")
	}
	if !bytes.Contains(buf.Bytes(), []byte("Page 1 of 1")) {
		t.Fatal("missing footer")
	}
}

func TestPDFPaginatesLongTables(t *testing.T) {
	var buf bytes.Buffer
	res, err := PDF(&buf, doc(t, 150, false), PDFOptions{NoCompress: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages < 3 {
		t.Fatalf("expected several pages, got %d", res.Pages)
	}
	last := fmt.Sprintf("Page %d of %d", res.Pages, res.Pages)
	if !bytes.Contains(buf.Bytes(), []byte(last)) {
		t.Fatalf("missing %q", last)
	}
}

func TestPDFWeeklyStartsBreakdownOnPageTwo(t *testing.T) {
	var buf bytes.Buffer
	res, err := PDF(&buf, doc(t, 8, true), PDFOptions{NoCompress: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Pages != 2 {
		t.Fatalf("expected 2 pages, got %d", res.Pages)
	}
	for _, s := range []string{"Page 1 of 2", "Page 2 of 2", "Period Comparison", "Campaign Breakdown", "n/a"} {
		if !bytes.Contains(buf.Bytes(), []byte(s)) {
			t.Fatalf("missing %q", s)
		}
	}
}

func TestPDFIsStable(t *testing.T) {
	d := doc(t, 60, true)
	var a, b bytes.Buffer
	ra, err := PDF(&a, d, PDFOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rb, err := PDF(&b, d, PDFOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if ra.Pages != rb.Pages {
		t.Fatalf("page count changed: %d vs %d", ra.Pages, rb.Pages)
	}
}

func TestPDFMissingTable(t *testing.T) {
	d := report.Document{Title: "broken", Sections: []report.Section{{Kind: report.SectionTable, Heading: "x"}}}
	var buf bytes.Buffer
	_, err := PDF(&buf, d, PDFOptions{})
	var ee *Error
	if !errors.As(err, &ee) || ee.Format != FormatPDF {
		t.Fatalf("expected pdf *Error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("partial artifact written")
	}
}
