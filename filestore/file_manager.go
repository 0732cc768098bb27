package filestore

import (
	"io"
)

const (
	TransactionsFileName = "transactions.txt"
	ResultsFileName      = "frequent_item_sets.txt"
)

// FileManager stores transaction datasets and mining results. Paths are
// relative to the manager's base directory or bucket.
type FileManager interface {
	Create(dir, fileName string, reader io.Reader) error
	Get(dir, fileName string) (io.ReadCloser, error)
	GetDatasetDir(datasetID string) string
	GetTransactionsFilePathAndName(datasetID string) (string, string)
	GetResultsFilePathAndName(datasetID, runID string) (string, string)
}
