package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/stockbot/internal/types"
	"github.com/rxtech-lab/stockbot/internal/version"
	"github.com/rxtech-lab/stockbot/pkg/errors"
)

// StatsFileName holds the run summaries of one data file.
const StatsFileName = "stats.yaml"

// getResultFolder returns <results>/[<start>_<end>/]<data file name> for a data file.
func getResultFolder(resultsFolder string, config BacktestEngineV1Config, dataPath string) string {
	folder := resultsFolder

	if config.StartTime.IsSome() || config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if config.StartTime.IsSome() {
			startTimeStr = config.StartTime.Unwrap().Format("20060102")
		}

		if config.EndTime.IsSome() {
			endTimeStr = config.EndTime.Unwrap().Format("20060102")
		}

		folder = filepath.Join(folder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	}

	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(folder, dataFileName)
}

// ReadStats loads a stats.yaml written by Run. Summaries recorded by an engine
// whose major or minor version differs from the running one are rejected.
func ReadStats(path string) ([]types.RunSummary, error) {
	summaries, err := types.ReadRunSummaries(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to read stats", err)
	}

	for _, summary := range summaries {
		if err := version.CheckVersionCompatibility(version.GetVersion(), summary.EngineVersion); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeIncompatibleVersion, err, "run %s in %s", summary.ID, path)
		}
	}

	return summaries, nil
}
