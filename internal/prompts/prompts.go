package prompts

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Item is one prompt together with its 1-based source line number. Line
// numbers count every line of the input, blanks included, so output filenames
// stay aligned with the source file.
type Item struct {
	Line int
	Text string
}

const maxLineBytes = 1 << 20

// ReadFile reads prompts from path. A missing or unreadable file is a
// configuration-level failure for the caller.
func ReadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompt file: %w", err)
	}
	defer f.Close()

	items, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return items, nil
}

// Read parses line-oriented CSV input: one prompt per line, first field only.
// Blank lines produce no item but still advance the line counter.
func Read(r io.Reader) ([]Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var items []Item
	line := 0
	for scanner.Scan() {
		line++

		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		text := firstField(raw)
		if text == "" {
			continue
		}

		items = append(items, Item{Line: line, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}

	return items, nil
}

// firstField extracts the first CSV field of a single line, falling back to
// the raw line when it is not valid CSV (unbalanced quotes and the like).
func firstField(line string) string {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	record, err := reader.Read()
	if err != nil || len(record) == 0 {
		return line
	}
	return strings.TrimSpace(record[0])
}
