package calendar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoCalendarTable is returned when a fetched document carries no
// calendar table, which usually means the source served an error page or
// changed its markup. Callers skip the sync cycle on it.
var ErrNoCalendarTable = errors.New("no calendar table found in document")

const tableMarker = ".calendar__table"

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run locates the calendar table in a full HTML document and returns its
// serialized sub-tree.
func (e *Extractor) Run(pageHTML string) (string, error) {
	if pageHTML == "" {
		return "", fmt.Errorf("HTML data is empty")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}

	table := doc.Find(tableMarker).First()
	if table.Length() == 0 {
		return "", ErrNoCalendarTable
	}

	fragment, err := goquery.OuterHtml(table)
	if err != nil {
		return "", fmt.Errorf("failed to serialize calendar table: %w", err)
	}

	return fragment, nil
}
