// Command xlsxkit writes, builds and inspects .xlsx workbooks.
package main

import "github.com/klytics/xlsxkit/cmd"

func main() {
	cmd.Execute()
}
