// Package xlsx writes Excel .xlsx workbooks.
//
// A Workbook holds worksheets; a Worksheet is a sparse grid of typed
// cells plus the features attached to it (merged ranges, autofilters,
// tables, images, charts, conditional formats, hyperlinks and page
// setup). Nothing is written until Save, SaveToBuffer or SaveToWriter,
// which assemble the whole package in memory and then zip it.
//
//	wb := xlsx.NewWorkbook()
//	ws, _ := wb.AddWorksheet("Sales")
//	bold := xlsx.NewFormat().SetBold()
//	ws.WriteString(0, 0, "Region", bold)
//	ws.WriteNumber(1, 0, 1250.5)
//	if err := wb.Save("sales.xlsx"); err != nil {
//		log.Fatal(err)
//	}
//
// Structs can be written with SerializeHeaders and Serialize: the first
// registers a column per field, the second appends values below it.
//
// Rows and columns are zero-based. Formats are plain values; equal
// formats share one style record in the saved file.
package xlsx
