package benchmarks

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klytics/xlsxkit/internal/book"
	"github.com/klytics/xlsxkit/internal/inspect"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

var sampleXlsx = filepath.Join("..", "testdata", "sample.xlsx")
var sampleBook = filepath.Join("..", "testdata", "sample.yaml")

func fillSheet(b *testing.B, ws *xlsx.Worksheet, rows int) {
	b.Helper()
	when := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for r := 0; r < rows; r++ {
		vals := []any{fmt.Sprintf("item-%d", r%100), float64(r) * 1.5, r%2 == 0, when.AddDate(0, 0, r%365)}
		if err := ws.WriteRow(xlsx.RowNum(r), 0, vals); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteSmall(b *testing.B) {
	for i := 0; i < b.N; i++ {
		wb := xlsx.NewWorkbook()
		ws, _ := wb.AddWorksheet("Data")
		fillSheet(b, ws, 100)
		if _, err := wb.SaveToBuffer(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteLarge(b *testing.B) {
	for i := 0; i < b.N; i++ {
		wb := xlsx.NewWorkbook()
		ws, _ := wb.AddWorksheet("Data")
		fillSheet(b, ws, 20000)
		if _, err := wb.SaveToBuffer(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkWriteFormatted(b *testing.B) {
	formats := []xlsx.Format{
		xlsx.NewFormat().SetBold(),
		xlsx.NewFormat().SetNumFormat("0.00%"),
		xlsx.NewFormat().SetBackgroundColor(xlsx.ColorGreen).SetBorder(xlsx.BorderThin),
	}
	for i := 0; i < b.N; i++ {
		wb := xlsx.NewWorkbook()
		ws, _ := wb.AddWorksheet("Styled")
		for r := 0; r < 2000; r++ {
			for c := 0; c < 10; c++ {
				if err := ws.WriteWithFormat(xlsx.RowNum(r), xlsx.ColNum(c), float64(r*c), formats[(r+c)%len(formats)]); err != nil {
					b.Fatal(err)
				}
			}
		}
		if _, err := wb.SaveToBuffer(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSharedStrings(b *testing.B) {
	for i := 0; i < b.N; i++ {
		wb := xlsx.NewWorkbook()
		ws, _ := wb.AddWorksheet("Text")
		for r := 0; r < 10000; r++ {
			ws.Write(xlsx.RowNum(r), 0, fmt.Sprintf("label %d", r%500))
		}
		if _, err := wb.SaveToBuffer(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuildBook(b *testing.B) {
	if _, err := os.Stat(sampleBook); os.IsNotExist(err) {
		b.Skip("sample.yaml not found")
	}
	desc, err := book.Load(sampleBook)
	if err != nil {
		b.Fatal(err)
	}
	opts := book.Options{BaseDir: filepath.Dir(sampleBook)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wb, err := book.Build(desc, opts)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := wb.SaveToBuffer(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInspect(b *testing.B) {
	if _, err := os.Stat(sampleXlsx); os.IsNotExist(err) {
		b.Skip("sample.xlsx not found")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := inspect.ReadFile(sampleXlsx, inspect.Options{Values: true}); err != nil {
			b.Fatal(err)
		}
	}
}
