//go:build ignore

// This program generates the test fixtures used by the benchmarks and
// smoke tests.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

const sampleBook = `properties:
  title: Regional sales
  author: xlsxkit
formats:
  header:
    bold: true
    background: "#DDEBF7"
    border: thin
  money:
    num_format: "$#,##0.00"
names:
  Regions: "=Sales!$A$2:$A$5"
sheets:
  - name: Sales
    freeze: A2
    columns:
      - col: A
        width: 16
      - col: "B:D"
        format: money
    rows:
      - at: A1
        values: [Region, Q1, Q2, Total]
        format: header
      - at: A2
        values: [North, 1200.5, 1300, "=SUM(B2:C2)"]
      - at: A3
        values: [South, 900, 1100.25, "=SUM(B3:C3)"]
      - at: A4
        values: [East, 1530, 1480, "=SUM(B4:C4)"]
      - at: A5
        values: [West, 1010, 990.75, "=SUM(B5:C5)"]
    conditionals:
      - range: "D2:D5"
        type: data_bar
    charts:
      - at: F2
        type: column
        title: Sales by region
        series:
          - name: Q1
            categories: "A2:A5"
            values: "B2:B5"
          - name: Q2
            categories: "A2:A5"
            values: "C2:C5"
`

func main() {
	if err := generateXlsx(); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating sample.xlsx: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("testdata/sample.yaml", []byte(sampleBook), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing sample.yaml: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Test fixtures generated successfully.")
}

func generateXlsx() error {
	wb := xlsx.NewWorkbook()
	wb.SetProperties(xlsx.DocProperties{Title: "xlsxkit sample", Author: "xlsxkit"})

	employees, err := wb.AddWorksheet("Employees")
	if err != nil {
		return err
	}
	header := xlsx.NewFormat().SetBold().SetBackgroundColor(xlsx.ColorSilver)
	if err := employees.WriteRow(0, 0, []any{"Name", "Department", "Salary", "Start Date"}, header); err != nil {
		return err
	}
	people := [][]any{
		{"Alice Johnson", "Engineering", 125000, time.Date(2019, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"Bob Smith", "Marketing", 95000, time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"Carol Williams", "Engineering", 135000, time.Date(2018, 1, 10, 0, 0, 0, 0, time.UTC)},
		{"David Brown", "Sales", 85000, time.Date(2021, 11, 20, 0, 0, 0, 0, time.UTC)},
		{"Eve Davis", "Engineering", 115000, time.Date(2022, 4, 5, 0, 0, 0, 0, time.UTC)},
	}
	for i, p := range people {
		if err := employees.WriteRow(xlsx.RowNum(i+1), 0, p); err != nil {
			return err
		}
	}
	employees.FreezePanes(1, 0)
	employees.Autofit()

	budget, err := wb.AddWorksheet("Budget")
	if err != nil {
		return err
	}
	rows := [][]any{
		{"Category", "Q1", "Q2", "Q3", "Q4"},
		{"Engineering", 500000, 520000, 540000, 560000},
		{"Marketing", 200000, 210000, 220000, 250000},
		{"Sales", 150000, 155000, 160000, 170000},
	}
	for i, r := range rows {
		if err := budget.WriteRow(xlsx.RowNum(i), 0, r); err != nil {
			return err
		}
	}
	if err := budget.Write(4, 0, "Total"); err != nil {
		return err
	}
	for c := xlsx.ColNum(1); c <= 4; c++ {
		col := string(rune('A' + c))
		if err := budget.Write(4, c, xlsx.NewFormula(fmt.Sprintf("=SUM(%s2:%s4)", col, col))); err != nil {
			return err
		}
	}

	return wb.Save("testdata/sample.xlsx")
}
