package parser

import (
	"encoding/csv"
	"strings"
)

// Document gives line-oriented access to the extracted text of a statement.
type Document struct {
	Filename string
	lines    []string
}

// NewDocument splits data into lines, dropping a UTF-8 byte order mark and
// carriage returns.
func NewDocument(filename string, data []byte) *Document {
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	return &Document{
		Filename: filename,
		lines:    strings.Split(text, "\n"),
	}
}

// Lines returns every line of the document.
func (d *Document) Lines() []string {
	return d.lines
}

// Section is a run of consecutive lines. Start is the 0-based index of the first
// line in the document.
type Section struct {
	Start int
	Lines []string
}

// LineNumber returns the 1-indexed document line of the i-th line of the section.
func (s Section) LineNumber(i int) int {
	return s.Start + i + 1
}

// FindLine returns the index of the first line at or after start that begins with
// prefix, ignoring leading whitespace. An empty prefix finds the first blank line.
func (d *Document) FindLine(prefix string, start int) (int, bool) {
	for i := start; i < len(d.lines); i++ {
		line := strings.TrimSpace(d.lines[i])
		if prefix == "" {
			if line == "" {
				return i, true
			}
			continue
		}
		if strings.HasPrefix(line, prefix) {
			return i, true
		}
	}
	return -1, false
}

// LinesBetween returns the lines from the first line starting with begin up to, but
// not including, the next line starting with end. An empty end stops at the first
// blank line. A missing end runs to the end of the document.
func (d *Document) LinesBetween(begin, end string, from int) (Section, bool) {
	start, ok := d.FindLine(begin, from)
	if !ok {
		return Section{}, false
	}

	stop, ok := d.FindLine(end, start+1)
	if !ok {
		stop = len(d.lines)
	}

	return Section{Start: start, Lines: d.lines[start:stop]}, true
}

// splitRecord parses one CSV line into trimmed fields.
func splitRecord(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record, nil
}
