package pdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

type Table struct {
	Title string
	Rows  []Row
}

type Row []string

// parseTables reads the layout service html response. Tables arrive as one
// html document, an all-empty row separates logical tables.
func parseTables(logger *zap.Logger, html io.Reader) ([]Table, error) {
	contents, err := io.ReadAll(html)
	if err != nil {
		return nil, err
	}

	unescaped := strings.Replace(string(contents), `\"`, `"`, -1)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return nil, err
	}

	var (
		tables              = []Table{}
		rowSpan, rowSpanIdx int
		rowSpanCell         string
	)

	doc.Find("table").Each(func(i int, tableSel *goquery.Selection) {
		aTable := Table{}
		tableSel.Find("tr").Each(func(index int, rowSel *goquery.Selection) {
			aRow := Row{}
			idx := 0
			rowSel.Find("td").Each(func(index int, cellSel *goquery.Selection) {
				if cellSel != nil {
					cellSpanStr, cellSpanExists := cellSel.Attr("rowspan")
					if cellSpanExists {
						span, err := strconv.Atoi(cellSpanStr)
						if err != nil {
							logger.Sugar().With("error", err).Error("failed to parse rowspan attribute")
						} else {
							rowSpan = span - 1
							rowSpanIdx = idx
							rowSpanCell = cellSel.Text()
						}
					} else if rowSpan > 0 && rowSpanIdx == idx {
						aRow = append(aRow, rowSpanCell)
						rowSpan -= 1
						idx += 1
					}
					aRow = append(aRow, cellSel.Text())
				}
				idx += 1
			})
			if !emptyRow(aRow) {
				aTable.Rows = append(aTable.Rows, aRow)
			} else {
				tables = append(tables, aTable)
				aTable = Table{}
			}
		})
		tables = append(tables, aTable)
	})

	for i, aTable := range tables {
		if len(aTable.Rows) > 1 && len(aTable.Rows[0]) < len(aTable.Rows[1]) {
			// Remove header row if it has fewer columns than the next row
			tables[i].Title = strings.Join(aTable.Rows[0], " ")
			tables[i].Rows = aTable.Rows[1:]
		}
	}

	return tables, nil
}

// ToContexts flattens the table into natural-language lines, one per data
// row, pairing each cell with its column header.
func (t Table) ToContexts() []string {
	if len(t.Rows) <= 1 {
		return nil
	}

	if len(t.Rows[0]) < 1 {
		return nil
	}

	contexts := make([]string, 0, len(t.Rows)-1)
	for _, aRow := range t.Rows[1:] {
		var (
			leftSide  = aRow[0]
			rightSide = make([]string, 0, len(aRow)-1)
		)
		for i, aCell := range aRow[1:] {
			if i+1 >= len(t.Rows[0]) {
				break
			}
			var (
				left  = strings.TrimSpace(t.Rows[0][i+1])
				right = strings.TrimSpace(aCell)
			)
			if right == "" {
				continue
			}
			rightSide = append(rightSide, fmt.Sprintf("%s: %s", left, right))
		}
		if len(rightSide) == 0 {
			continue
		}
		contexts = append(contexts, fmt.Sprintf("%s: %s", leftSide, strings.Join(rightSide, ", ")))
	}
	return contexts
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
