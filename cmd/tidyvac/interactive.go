package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/acarvalhaes/go-tidy-vacancies/models"
	"github.com/acarvalhaes/go-tidy-vacancies/workbook"
)

// chooseSheet lists the worksheets, prompts for a 1-based number, previews
// the extraction, and asks for confirmation. Declining or picking a sheet
// that does not match the layout returns to the prompt; EOF aborts.
func chooseSheet(wb *workbook.Workbook, extractor *workbook.Extractor, opts workbook.Options, in io.Reader, out io.Writer) (*models.ExtractResult, error) {
	names := wb.SheetNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no worksheets")
	}

	fmt.Fprintln(out, "Worksheets in the workbook:")
	for i, name := range names {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, name)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Worksheet number to extract: ")
		if !scanner.Scan() {
			return nil, fmt.Errorf("input closed before a worksheet was chosen")
		}
		choice := strings.TrimSpace(scanner.Text())
		number, err := strconv.Atoi(choice)
		if err != nil || number < 1 || number > len(names) {
			fmt.Fprintf(out, "Invalid choice %q, enter a number between 1 and %d.\n", choice, len(names))
			continue
		}
		name := names[number-1]

		result, err := extractor.Extract(name, opts)
		if err != nil {
			fmt.Fprintf(out, "Cannot use %q: %v\n", name, err)
			continue
		}

		fmt.Fprintf(out, "\nSelected %q", name)
		if result.DatasetLabel != "" {
			fmt.Fprintf(out, " (%s)", result.DatasetLabel)
		}
		fmt.Fprintf(out, ": %d geographies x %d quarters, %d missing cells.\n",
			len(result.Table.Geos), len(result.Table.Quarters), result.MissingCells)

		fmt.Fprint(out, "Extract this worksheet? [Y/n]: ")
		if !scanner.Scan() {
			return nil, fmt.Errorf("input closed before confirmation")
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "y", "yes":
			return result, nil
		}
	}
}
