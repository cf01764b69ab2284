package split_test

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"csvtoolkit/internal/split"
	"csvtoolkit/pkg/apperrors"
	"csvtoolkit/pkg/table"
)

func mkTable(n int) *table.Table {
	t := table.New("data.csv", []string{"id", "v"})
	for i := 1; i <= n; i++ {
		t.Append(table.Row{"id": fmt.Sprintf("%d", i), "v": "x"})
	}
	return t
}

func readEntry(t *testing.T, zr *zip.Reader, name string) string {
	t.Helper()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		return string(data)
	}
	t.Fatalf("entry %s not found", name)
	return ""
}

func TestSplitEvenly(t *testing.T) {
	res, err := split.Split(mkTable(10), 2, "data")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(res.Parts) != 2 {
		t.Fatalf("parts=%v", res.Parts)
	}
	zr, err := zip.NewReader(bytes.NewReader(res.Zip), int64(len(res.Zip)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	p1 := readEntry(t, zr, "data_part_1.csv")
	// Header plus five data rows per part.
	if got := strings.Count(p1, "\n"); got != 6 {
		t.Fatalf("part 1 lines=%d want 6", got)
	}
	if !strings.HasPrefix(p1, "id,v\n1,x\n") {
		t.Fatalf("part 1 = %q", p1)
	}
	p2 := readEntry(t, zr, "data_part_2.csv")
	if !strings.HasPrefix(p2, "id,v\n6,x\n") {
		t.Fatalf("part 2 = %q", p2)
	}
}

func TestSplitRemainderGoesEarly(t *testing.T) {
	res, err := split.Split(mkTable(7), 3, "data")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	// ceil(7/3)=3 rows per part: 3+3+1.
	if len(res.Parts) != 3 {
		t.Fatalf("parts=%v", res.Parts)
	}
	zr, err := zip.NewReader(bytes.NewReader(res.Zip), int64(len(res.Zip)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	last := readEntry(t, zr, "data_part_3.csv")
	if got := strings.Count(last, "\n"); got != 2 {
		t.Fatalf("last part lines=%d want 2", got)
	}
}

func TestSplitMorePartsThanRows(t *testing.T) {
	res, err := split.Split(mkTable(2), 5, "data")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	// Empty trailing chunks are not emitted.
	if len(res.Parts) != 2 {
		t.Fatalf("parts=%v", res.Parts)
	}
}

func TestSplitValidation(t *testing.T) {
	if _, err := split.Split(mkTable(5), 1, "data"); !apperrors.IsKind(err, apperrors.KindInput) {
		t.Fatalf("parts=1: kind=%v want input", apperrors.KindOf(err))
	}
	if _, err := split.Split(mkTable(0), 2, "data"); !apperrors.IsKind(err, apperrors.KindInput) {
		t.Fatalf("no rows: kind=%v want input", apperrors.KindOf(err))
	}
}
