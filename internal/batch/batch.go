package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cognicore/kleisli/internal/extract"
	"github.com/cognicore/kleisli/internal/logging"
)

// Item is one input record of a batch file
type Item struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	HTML bool   `json:"html"` // Text is an HTML document
}

// Input returns the text to feed to the pipeline. Whitespace is kept as
// is since it decides token boundaries.
func (it Item) Input() string {
	if it.HTML {
		return extract.PlainTextString(it.Text)
	}
	return it.Text
}

// LoadFromJSONL loads items from a JSONL file with proper error handling
func LoadFromJSONL(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var items []Item
	lines := strings.Split(string(data), "\n")

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var item Item
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			logging.GetLogger().Warn("skipping malformed batch line",
				"path", path,
				"line", i+1,
				"error", err,
			)
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no valid items found in %s", path)
	}

	return items, nil
}
