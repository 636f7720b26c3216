// Package channels loads the fixed channel roster the harvester runs over.
package channels

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Channel is one roster entry.
type Channel struct {
	Name string
	ID   string
}

// Load reads a roster CSV with a header containing channel_name and
// channel_id columns (in any order). Rows without a channel id are skipped.
func Load(path string) ([]Channel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open channel list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the roster from r; see Load.
func Parse(r io.Reader) ([]Channel, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read channel list header: %w", err)
	}
	nameCol, idCol := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "channel_name":
			nameCol = i
		case "channel_id":
			idCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("channel list missing channel_id column")
	}

	var out []Channel
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read channel list row: %w", err)
		}
		if idCol >= len(row) {
			continue
		}
		ch := Channel{ID: strings.TrimSpace(row[idCol])}
		if nameCol >= 0 && nameCol < len(row) {
			ch.Name = strings.TrimSpace(row[nameCol])
		}
		if ch.ID == "" {
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}
