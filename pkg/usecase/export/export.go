// Package export produces the verified dataset surface: filtered plain
// records, local JSON downloads, final dataset persistence and hub pushes.
package export

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/winnow/pkg/adapter"
	"github.com/m-mizutani/winnow/pkg/model"
	"github.com/m-mizutani/winnow/pkg/repository"
	"gopkg.in/yaml.v3"
)

// FieldSelection maps field names to inclusion flags for export records
type FieldSelection map[string]bool

// DefaultSelection includes the content and quality fields
func DefaultSelection() FieldSelection {
	return FieldSelection{
		"id":        true,
		"query":     true,
		"reasoning": true,
		"answer":    true,
		"messages":  true,
		"score":     true,
	}
}

// LoadSelection reads a field selection profile from a YAML file
func LoadSelection(path string) (FieldSelection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read field profile", goerr.Value("path", path))
	}
	var selection FieldSelection
	if err := yaml.Unmarshal(raw, &selection); err != nil {
		return nil, goerr.Wrap(err, "failed to parse field profile", goerr.Value("path", path))
	}
	return selection, nil
}

// Verified filters out discarded items
func Verified(items []*model.Item) []*model.Item {
	kept := make([]*model.Item, 0, len(items))
	for _, item := range items {
		if item.IsDiscarded {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// Records builds ordered plain records containing only the included fields.
// Discarded items are excluded.
func Records(items []*model.Item, selection FieldSelection) []map[string]any {
	records := make([]map[string]any, 0, len(items))
	for _, item := range Verified(items) {
		record := map[string]any{}
		if selection["id"] {
			record["id"] = string(item.ID)
		}
		if item.IsMultiTurn() {
			if selection["messages"] {
				record["messages"] = item.Messages
			}
		} else {
			if selection["query"] {
				record["query"] = item.Query
			}
			if selection["reasoning"] {
				record["reasoning"] = item.Reasoning
			}
			if selection["answer"] {
				record["answer"] = item.Answer
			}
		}
		if selection["score"] {
			record["score"] = item.Score
		}
		if selection["status"] {
			record["status"] = string(item.Status)
		}
		records = append(records, record)
	}
	return records
}

// Filename returns the download file name for the given day,
// e.g. synth_verified_2025-11-02.json
func Filename(now time.Time) string {
	return "synth_verified_" + now.Format("2006-01-02") + ".json"
}

// WriteJSON writes the selected records as a JSON array
func WriteJSON(w io.Writer, items []*model.Item, selection FieldSelection) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Records(items, selection)); err != nil {
		return goerr.Wrap(err, "failed to encode export records")
	}
	return nil
}

// SaveFinal persists the verified items into the named backing-store
// collection and returns the number written
func SaveFinal(ctx context.Context, repo repository.Repository, items []*model.Item, collection string) (int, error) {
	if !repo.IsEnabled() {
		return 0, goerr.Wrap(repository.ErrStoreDisabled, "save final dataset")
	}

	verified := Verified(items)
	count, err := repo.SaveFinalDataset(ctx, verified, collection)
	if err != nil {
		return count, goerr.Wrap(err, "failed to save final dataset", goerr.Value("collection", collection))
	}
	return count, nil
}

// Push uploads the verified items to the dataset hub in the given format and
// returns the uploaded object's URL
func Push(ctx context.Context, hub adapter.Hub, token, repoID string, items []*model.Item, filename string, isPublic bool, format adapter.Format) (string, error) {
	if err := format.Validate(); err != nil {
		return "", err
	}

	url, err := hub.UploadDataset(ctx, token, repoID, Verified(items), filename, isPublic, format)
	if err != nil {
		return "", goerr.Wrap(err, "failed to push dataset", goerr.Value("repo", repoID))
	}
	return url, nil
}
