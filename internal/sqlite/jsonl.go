package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadJSONL reads a JSON Lines file and returns each non-empty, parseable
// line as a json.RawMessage. Malformed lines are skipped; their 1-based
// line numbers are returned in skipped.
func ReadJSONL(path string) (records []json.RawMessage, skipped []int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, skipped, err = DecodeJSONL(f)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, skipped, nil
}

// DecodeJSONL is ReadJSONL over an arbitrary reader.
func DecodeJSONL(r io.Reader) (records []json.RawMessage, skipped []int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if !json.Valid(b) {
			skipped = append(skipped, line)
			continue
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return records, skipped, nil
}
