package tracker

import (
	"encoding/gob"
	"log"
	"os"

	"sfneuman.com/a2oc/agent"
)

// Loss tracks and saves the statistics reported by an agent's
// learning updates. Each named statistic is accumulated into its own
// series, one entry per update.
type Loss struct {
	series   map[string][]float64
	filename string
}

// NewLoss creates and returns a new *Loss Tracker, saving its data at
// filename
func NewLoss(filename string) *Loss {
	return &Loss{
		series:   make(map[string][]float64),
		filename: filename,
	}
}

// Track tracks the statistics of one learning update
func (l *Loss) Track(summary agent.Summary) {
	for name, value := range summary {
		l.series[name] = append(l.series[name], value)
	}
}

// Save saves the data tracked by the Loss Tracker to disk
func (l *Loss) Save() {
	file, err := os.Create(l.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(l.series); err != nil {
		log.Fatalf("could not encode loss data: %v", err)
	}
}

// LoadLosses decodes update statistics saved by a Loss Tracker
func LoadLosses(filename string) (map[string][]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	series := make(map[string][]float64)
	de := gob.NewDecoder(file)
	if err := de.Decode(&series); err != nil {
		return nil, err
	}
	return series, nil
}
