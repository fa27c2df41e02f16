// Package tracker records and saves data generated while an agent
// interacts with a vectorized environment
package tracker

// Tracker tracks experiment data and saves it to disk. Data is
// gob-encoded so that separate analysis programs can decode and plot
// it after an experiment finishes.
type Tracker interface {
	Save()
}
