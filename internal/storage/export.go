package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/airace/internal/dynamo"
)

type ExportData struct {
	Run      RunMetadata      `json:"run"`
	Episodes []dynamo.Episode `json:"episodes"`
}

// ExportJSON writes a saved run as one JSON document. A path of "-"
// writes to stdout.
func (s *Store) ExportJSON(runID, path string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	episodes, err := s.LoadEpisodes(runID)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Episodes: episodes})
}
