package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/san-kum/airace/internal/config"
	"github.com/san-kum/airace/internal/dynamo"
	"github.com/san-kum/airace/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	episodesFile = "episodes.csv"
	configFile   = "config.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Track      string             `json:"track"`
	Policy     string             `json:"policy"`
	Integrator string             `json:"integrator"`
	Training   bool               `json:"training"`
	Agents     int                `json:"agents"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Ticks      int                `json:"ticks"`
	SimTime    float64            `json:"sim_time"`
	Episodes   int                `json:"episodes"`
	Metrics    map[string]float64 `json:"metrics"`
	Standings  []dynamo.Episode   `json:"standings"`
}

// Save writes a run under a new time-ordered id and returns the id.
func (s *Store) Save(cfg *config.Config, result *experiment.Result) (string, error) {
	id := ksuid.New()
	runID := id.String()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  id.Time(),
		Track:      cfg.Arena.Track,
		Policy:     cfg.Run.Policy,
		Integrator: cfg.Flight.Integrator,
		Training:   cfg.Arena.Training,
		Agents:     cfg.Arena.Agents,
		Seed:       cfg.Arena.Seed,
		Dt:         cfg.Flight.Dt,
		Ticks:      result.Ticks,
		SimTime:    result.SimTime,
		Episodes:   len(result.Episodes),
		Metrics:    result.Metrics,
		Standings:  result.Standings,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeEpisodes(filepath.Join(runDir, episodesFile), result.Episodes); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeEpisodes(path string, episodes []dynamo.Episode) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"agent", "episode", "steps", "reward", "checkpoints", "reason"}); err != nil {
		return err
	}
	for _, ep := range episodes {
		row := []string{
			ep.Agent,
			strconv.Itoa(ep.Number),
			strconv.Itoa(ep.Steps),
			strconv.FormatFloat(ep.Reward, 'f', 6, 64),
			strconv.Itoa(ep.Checkpoints),
			ep.Reason,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns saved runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID < runs[j].ID })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

func (s *Store) LoadEpisodes(runID string) ([]dynamo.Episode, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, episodesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 6

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	episodes := make([]dynamo.Episode, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue
		}
		ep, err := parseEpisode(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", episodesFile, i+1, err)
		}
		episodes = append(episodes, ep)
	}
	return episodes, nil
}

func parseEpisode(record []string) (dynamo.Episode, error) {
	number, err := strconv.Atoi(record[1])
	if err != nil {
		return dynamo.Episode{}, err
	}
	steps, err := strconv.Atoi(record[2])
	if err != nil {
		return dynamo.Episode{}, err
	}
	reward, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return dynamo.Episode{}, err
	}
	checkpoints, err := strconv.Atoi(record[4])
	if err != nil {
		return dynamo.Episode{}, err
	}
	return dynamo.Episode{
		Agent:       record[0],
		Number:      number,
		Steps:       steps,
		Reward:      reward,
		Checkpoints: checkpoints,
		Reason:      record[5],
	}, nil
}
