package logging

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Logger is the per-episode metric sink. Every finished episode is appended
// to a CSV file and a JSONL file; both are flushed per row so an interrupt
// loses at most the episode in flight. How the files are consumed (plotted,
// tailed, ignored) is not this package's concern.
type Logger struct {
	csvFile   *os.File
	csvWriter *csv.Writer
	jsonFile  *os.File

	scores []float64
}

// EpisodeRow is one JSONL record.
type EpisodeRow struct {
	Episode int     `json:"episode"`
	Score   int     `json:"score"`
	Mean    float64 `json:"mean"`
	Record  int     `json:"record"`
	Epsilon float64 `json:"epsilon"`
}

var csvHeader = []string{"episode", "score", "mean", "record", "epsilon"}

// NewLogger creates the metric files, making their directories on demand.
func NewLogger(csvPath, jsonPath string) (*Logger, error) {
	for _, p := range []string{csvPath, jsonPath} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
	}

	csvFile, err := os.Create(csvPath)
	if err != nil {
		return nil, err
	}
	jsonFile, err := os.Create(jsonPath)
	if err != nil {
		csvFile.Close()
		return nil, err
	}

	l := &Logger{
		csvFile:   csvFile,
		csvWriter: csv.NewWriter(csvFile),
		jsonFile:  jsonFile,
	}
	if err := l.csvWriter.Write(csvHeader); err != nil {
		l.Close()
		return nil, err
	}
	l.csvWriter.Flush()
	return l, l.csvWriter.Error()
}

// LogEpisode records one finished episode and returns the running mean score
// over the run so far.
func (l *Logger) LogEpisode(episode, score, record int, epsilon float64) (float64, error) {
	l.scores = append(l.scores, float64(score))
	mean := stat.Mean(l.scores, nil)

	row := EpisodeRow{
		Episode: episode,
		Score:   score,
		Mean:    mean,
		Record:  record,
		Epsilon: epsilon,
	}

	if err := l.csvWriter.Write([]string{
		strconv.Itoa(row.Episode),
		strconv.Itoa(row.Score),
		strconv.FormatFloat(row.Mean, 'f', 3, 64),
		strconv.Itoa(row.Record),
		strconv.FormatFloat(row.Epsilon, 'f', 1, 64),
	}); err != nil {
		return mean, err
	}
	l.csvWriter.Flush()
	if err := l.csvWriter.Error(); err != nil {
		return mean, err
	}

	data, err := json.Marshal(row)
	if err != nil {
		return mean, err
	}
	if _, err := l.jsonFile.Write(append(data, '\n')); err != nil {
		return mean, err
	}
	return mean, nil
}

// Close flushes and closes both files.
func (l *Logger) Close() {
	if l.csvWriter != nil {
		l.csvWriter.Flush()
	}
	if l.csvFile != nil {
		l.csvFile.Close()
	}
	if l.jsonFile != nil {
		l.jsonFile.Close()
	}
}
