package disk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"basket/filestore"

	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*DiskDriver)(nil)

type DiskDriver struct {
	// Analogous to a bucket name. Every path handed out is below it.
	baseDir string
}

func New(baseDir string) *DiskDriver {
	return &DiskDriver{baseDir: baseDir}
}

func MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (dd *DiskDriver) Create(dir, fileName string, reader io.Reader) error {
	err := MkdirAll(dir)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Errorln("Failed to create dir")
		return err
	}

	file, err := os.Create(filepath.Join(dir, fileName))
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, reader)
	return err
}

// Get opens a file in read only mode.
// Caller should take care of closing the returned io.ReadCloser.
func (dd *DiskDriver) Get(dir, fileName string) (io.ReadCloser, error) {
	log.WithFields(log.Fields{
		"Path":     dir,
		"FileName": fileName,
	}).Debug("DiskDriver Opening file")

	return os.OpenFile(filepath.Join(dir, fileName), os.O_RDONLY, 0444)
}

func (dd *DiskDriver) GetObjectSize(dir, fileName string) (int64, error) {
	objInfo, err := os.Stat(filepath.Join(dir, fileName))
	if err != nil {
		return 0, err
	}
	return objInfo.Size(), nil
}

func (dd *DiskDriver) GetDatasetDir(datasetID string) string {
	return fmt.Sprintf("%s/datasets/%s/", dd.baseDir, datasetID)
}

func (dd *DiskDriver) GetTransactionsFilePathAndName(datasetID string) (string, string) {
	return dd.GetDatasetDir(datasetID), filestore.TransactionsFileName
}

func (dd *DiskDriver) GetRunDir(datasetID, runID string) string {
	return fmt.Sprintf("%sruns/%s/", dd.GetDatasetDir(datasetID), runID)
}

func (dd *DiskDriver) GetResultsFilePathAndName(datasetID, runID string) (string, string) {
	return dd.GetRunDir(datasetID, runID), filestore.ResultsFileName
}

// ListRuns lists the run ids stored for a dataset.
func (dd *DiskDriver) ListRuns(datasetID string) []string {
	var runs []string
	entries, err := os.ReadDir(dd.GetDatasetDir(datasetID) + "runs")
	if err != nil {
		log.WithError(err).WithField("dataset", datasetID).Debug("No runs for dataset")
		return runs
	}
	for _, entry := range entries {
		if entry.IsDir() {
			runs = append(runs, entry.Name())
		}
	}
	return runs
}
