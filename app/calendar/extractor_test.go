package calendar

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractorRun(t *testing.T) {
	pageHTML := `<html>
<body>
  <header>Navigation and other page furniture</header>
  <table class="calendar__table">
    <tr data-event-id="1"><td class="calendar__cell calendar__date">Thu Feb 26</td></tr>
  </table>
  <footer>More furniture</footer>
</body>
</html>`

	fragment, err := NewExtractor().Run(pageHTML)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(fragment, "calendar__table") {
		t.Error("Expected fragment to contain the table marker class")
	}
	if !strings.Contains(fragment, `data-event-id="1"`) {
		t.Error("Expected fragment to contain the event row")
	}
	if strings.Contains(fragment, "footer") {
		t.Error("Expected fragment to exclude surrounding markup")
	}
}

func TestExtractorRunNoTable(t *testing.T) {
	pageHTML := `<html><body><h1>Maintenance</h1><p>The calendar is unavailable.</p></body></html>`

	_, err := NewExtractor().Run(pageHTML)
	if err == nil {
		t.Fatal("Expected error for document without calendar table")
	}
	if !errors.Is(err, ErrNoCalendarTable) {
		t.Errorf("Expected ErrNoCalendarTable, got: %v", err)
	}
}

func TestExtractorRunEmptyInput(t *testing.T) {
	if _, err := NewExtractor().Run(""); err == nil {
		t.Fatal("Expected error for empty input")
	}
}
