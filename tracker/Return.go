package tracker

import (
	"encoding/gob"
	"log"
	"os"
)

// Return tracks and saves the episodic returns of every copy of a
// vectorized environment. Rewards are accumulated per copy, and a
// copy's accumulated return is cached whenever its episode ends.
//
// Note: an episode must finish for this Tracker to save its data. If
// the last episode of a copy does not finish, that episode's return
// will not be saved.
type Return struct {
	currentReturns []float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker for an
// environment with n copies, saving its data at filename
func NewReturn(filename string, n int) *Return {
	return &Return{
		currentReturns: make([]float64, n),
		filename:       filename,
	}
}

// Track tracks the rewards seen on one environment step. Each copy's
// reward is added to that copy's accumulated return; copies whose
// episode ended cache their return and begin accumulating a new one.
func (r *Return) Track(rewards []float64, done []bool) {
	for i, reward := range rewards {
		r.currentReturns[i] += reward
		if done[i] {
			r.episodeReturns = append(r.episodeReturns,
				r.currentReturns[i])
			r.currentReturns[i] = 0.0
		}
	}
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() {
	file, err := os.Create(r.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(r.episodeReturns); err != nil {
		log.Fatalf("could not encode return data: %v", err)
	}
}

// LoadReturns decodes episodic returns saved by a Return Tracker
func LoadReturns(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var returns []float64
	de := gob.NewDecoder(file)
	if err := de.Decode(&returns); err != nil {
		return nil, err
	}
	return returns, nil
}
