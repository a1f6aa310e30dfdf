package pdf_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/JaimeStill/stamper/pkg/pdf"
)

// minimalPDF builds an uncompressed PDF with the given number of blank
// letter-sized pages and a correct cross-reference table.
func minimalPDF(pages int) []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}

	kids := make([]string, pages)
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))

	for range pages {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

// decodedStreams returns the decoded content of every stream object in data.
func decodedStreams(t *testing.T, data []byte) string {
	t.Helper()

	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("ReadContext() error = %v", err)
	}

	var all strings.Builder
	for _, entry := range ctx.XRefTable.Table {
		if entry == nil || entry.Free {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if err := sd.Decode(); err != nil {
			continue
		}
		all.Write(sd.Content)
		all.WriteByte('\n')
	}
	return all.String()
}

// stampPlacement matches the page content that draws one stamp form.
var stampPlacement = regexp.MustCompile(`q -?1\.0+ -?0\.0+ -?0\.0+ -?1\.0+ (-?[\d.]+) (-?[\d.]+) cm /\S+ gs /\S+ Do Q`)

// placements returns the translation of every stamp drawn in streams.
func placements(t *testing.T, streams string) [][2]float64 {
	t.Helper()

	var out [][2]float64
	for _, m := range stampPlacement.FindAllStringSubmatch(streams, -1) {
		x, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			t.Fatalf("parse x %q: %v", m[1], err)
		}
		y, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			t.Fatalf("parse y %q: %v", m[2], err)
		}
		out = append(out, [2]float64{x, y})
	}
	return out
}

func footer(lines ...string) pdf.TextBlock {
	return pdf.TextBlock{
		Lines:      lines,
		X:          50,
		Y:          50,
		LineHeight: 15,
		Font:       "Helvetica",
		Size:       12,
	}
}

func TestOpenPageCount(t *testing.T) {
	codec := pdf.NewCodec(nil)

	for _, pages := range []int{1, 3} {
		t.Run(fmt.Sprintf("%d pages", pages), func(t *testing.T) {
			doc, err := codec.Open(context.Background(), minimalPDF(pages))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer doc.Release()

			if got := doc.PageCount(); got != pages {
				t.Errorf("PageCount(): got %d, want %d", got, pages)
			}
		})
	}
}

func TestOpenRejectsMalformed(t *testing.T) {
	codec := pdf.NewCodec(nil)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not a pdf")},
		{"truncated", minimalPDF(1)[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Open(context.Background(), tt.data)
			if !errors.Is(err, pdf.ErrParse) {
				t.Errorf("Open() error = %v, want ErrParse", err)
			}
		})
	}
}

func TestOpenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pdf.NewCodec(nil).Open(ctx, minimalPDF(1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}

func TestAppendTextValidation(t *testing.T) {
	doc, err := pdf.NewCodec(nil).Open(context.Background(), minimalPDF(2))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Release()

	tests := []struct {
		name  string
		page  int
		block pdf.TextBlock
		want  error
	}{
		{"negative page", -1, footer("x"), pdf.ErrPageRange},
		{"past last page", 2, footer("x"), pdf.ErrPageRange},
		{"no lines", 0, footer(), pdf.ErrEmptyText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := doc.AppendText(tt.page, tt.block); !errors.Is(err, tt.want) {
				t.Errorf("AppendText() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStampEveryPage(t *testing.T) {
	codec := pdf.NewCodec(nil)
	src := minimalPDF(3)

	doc, err := codec.Open(context.Background(), src)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Release()

	block := footer("Date: 2024-01-01", "Name: Alice", "Comment: Approved")
	for page := range doc.PageCount() {
		if err := doc.AppendText(page, block); err != nil {
			t.Fatalf("AppendText(%d) error = %v", page, err)
		}
	}

	out, err := doc.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if bytes.Equal(out, src) {
		t.Fatal("stamped output should differ from the source")
	}

	stamped, err := codec.Open(context.Background(), out)
	if err != nil {
		t.Fatalf("reopen stamped output: %v", err)
	}
	defer stamped.Release()

	if got := stamped.PageCount(); got != 3 {
		t.Errorf("stamped PageCount(): got %d, want 3", got)
	}

	streams := decodedStreams(t, out)
	for _, want := range []string{"(Date: 2024-01-01)", "(Name: Alice)", "(Comment: Approved)"} {
		if !strings.Contains(streams, want) {
			t.Errorf("stamped output missing %s", want)
		}
	}
	if got := len(placements(t, streams)); got != 9 {
		t.Errorf("stamp placements: got %d, want 3 lines on 3 pages", got)
	}
}

func TestStampLineSpacing(t *testing.T) {
	codec := pdf.NewCodec(nil)

	doc, err := codec.Open(context.Background(), minimalPDF(1))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Release()

	if err := doc.AppendText(0, footer("Date: d", "Name: n", "Comment: c")); err != nil {
		t.Fatalf("AppendText() error = %v", err)
	}
	out, err := doc.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}

	got := placements(t, decodedStreams(t, out))
	if len(got) != 3 {
		t.Fatalf("stamp placements: got %d, want 3", len(got))
	}

	ys := make([]float64, len(got))
	for i, p := range got {
		if p[0] != 50 {
			t.Errorf("line %d x: got %v, want 50", i, p[0])
		}
		ys[i] = p[1]
	}
	slices.Sort(ys)

	for i := 1; i < len(ys); i++ {
		if diff := ys[i] - ys[i-1]; math.Abs(diff-15) > 0.01 {
			t.Errorf("line spacing %d: got %.2f, want 15", i, diff)
		}
	}
	if ys[0] < 45 || ys[0] > 55 {
		t.Errorf("first line y: got %.2f, want near 50", ys[0])
	}
}

func TestStampAccumulates(t *testing.T) {
	codec := pdf.NewCodec(nil)
	data := minimalPDF(1)

	for round := range 2 {
		doc, err := codec.Open(context.Background(), data)
		if err != nil {
			t.Fatalf("round %d Open() error = %v", round, err)
		}
		if err := doc.AppendText(0, footer(fmt.Sprintf("Date: round %d", round))); err != nil {
			t.Fatalf("round %d AppendText() error = %v", round, err)
		}
		data, err = doc.Serialize()
		if err != nil {
			t.Fatalf("round %d Serialize() error = %v", round, err)
		}
		doc.Release()
	}

	doc, err := codec.Open(context.Background(), data)
	if err != nil {
		t.Fatalf("reopen twice stamped output: %v", err)
	}
	defer doc.Release()

	if got := doc.PageCount(); got != 1 {
		t.Errorf("PageCount(): got %d, want 1", got)
	}

	streams := decodedStreams(t, data)
	for round := range 2 {
		if want := fmt.Sprintf("(Date: round %d)", round); !strings.Contains(streams, want) {
			t.Errorf("twice stamped output missing %s", want)
		}
	}
}

func TestSerializeWithoutText(t *testing.T) {
	src := minimalPDF(1)
	doc, err := pdf.NewCodec(nil).Open(context.Background(), src)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Release()

	out, err := doc.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Error("serializing without appended text should return the source bytes")
	}
}

func TestReleased(t *testing.T) {
	doc, err := pdf.NewCodec(nil).Open(context.Background(), minimalPDF(1))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if err := doc.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if err := doc.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}

	if err := doc.AppendText(0, footer("x")); !errors.Is(err, pdf.ErrReleased) {
		t.Errorf("AppendText() error = %v, want ErrReleased", err)
	}
	if _, err := doc.Serialize(); !errors.Is(err, pdf.ErrReleased) {
		t.Errorf("Serialize() error = %v, want ErrReleased", err)
	}
	if _, err := doc.RenderPage(context.Background(), 0, 72); !errors.Is(err, pdf.ErrReleased) {
		t.Errorf("RenderPage() error = %v, want ErrReleased", err)
	}
}

func TestRenderWithoutRasterizer(t *testing.T) {
	doc, err := pdf.NewCodec(nil).Open(context.Background(), minimalPDF(1))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Release()

	if _, err := doc.RenderPage(context.Background(), 0, 72); !errors.Is(err, pdf.ErrRender) {
		t.Errorf("RenderPage() error = %v, want ErrRender", err)
	}
	if _, err := doc.RenderPage(context.Background(), 5, 72); !errors.Is(err, pdf.ErrPageRange) {
		t.Errorf("RenderPage() error = %v, want ErrPageRange", err)
	}
}

func TestMagickRender(t *testing.T) {
	if _, err := exec.LookPath("magick"); err != nil {
		if _, err := exec.LookPath("convert"); err != nil {
			t.Skip("ImageMagick not installed")
		}
	}

	codec := pdf.NewCodec(pdf.NewMagickRasterizer(t.TempDir()))
	doc, err := codec.Open(context.Background(), minimalPDF(2))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer doc.Release()

	img, err := doc.RenderPage(context.Background(), 0, 72)
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	b := img.Bounds()
	if b.Dx() < 600 || b.Dx() > 620 || b.Dy() < 780 || b.Dy() > 800 {
		t.Errorf("bounds: got %dx%d, want about 612x792", b.Dx(), b.Dy())
	}
}

func TestTextBlockEqual(t *testing.T) {
	a := footer("one", "two")
	if !a.Equal(footer("one", "two")) {
		t.Error("identical blocks should be equal")
	}

	b := footer("one", "two")
	b.Y = 60
	if a.Equal(b) {
		t.Error("blocks at different positions should differ")
	}
	if a.Equal(footer("one")) {
		t.Error("blocks with different lines should differ")
	}
}
