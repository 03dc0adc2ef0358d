package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/avolkov/hopweaver/internal/model"
)

// LoadJSONL reads newline-delimited JSON claim records from path. Blank
// lines and lines that fail to decode are skipped, matching the lossy
// tolerance applied elsewhere to model output.
func LoadJSONL(path string) ([]model.ClaimRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topic file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []model.ClaimRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec model.ClaimRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan topic file: %w", err)
	}

	return records, nil
}

// LoadIndex builds a BM25 index from a JSONL topic file
func LoadIndex(path string) (*Index, error) {
	records, err := LoadJSONL(path)
	if err != nil {
		return nil, err
	}
	return New(records), nil
}
