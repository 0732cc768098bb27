package store

import (
	"bytes"
	"fmt"
	"os"

	"basket/filestore"
	"basket/itemset"
	"basket/metrics"
	"basket/results"
	"basket/transactions"

	cache "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	IdSeparator = ":"
)

var (
	ErrResultsNotFound      = errors.New("results not found")
	ErrTransactionsNotFound = errors.New("transactions not found")
)

type runLister interface {
	ListRuns(datasetID string) []string
}

type objectSizer interface {
	GetObjectSize(dir, fileName string) (int64, error)
}

// ResultStore keeps mined results and transaction datasets on disk, mirrors
// them to an optional cloud file manager and caches recently used results.
type ResultStore struct {
	diskFileManager  filestore.FileManager
	cloudFileManager filestore.FileManager

	resultsCache *cache.Cache
}

// New creates a store. cloudManager may be nil.
func New(resultsCacheSize int, diskManager, cloudManager filestore.FileManager) (*ResultStore, error) {
	resultsCache, err := cache.New(resultsCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create results cache")
	}
	return &ResultStore{
		diskFileManager:  diskManager,
		cloudFileManager: cloudManager,
		resultsCache:     resultsCache,
	}, nil
}

func GetRunKey(datasetID, runID string) string {
	return fmt.Sprintf("%s%s%s", datasetID, IdSeparator, runID)
}

func (rs *ResultStore) putResultsInCache(datasetID, runID string, res itemset.Frequencies) {
	rs.resultsCache.Add(GetRunKey(datasetID, runID), res)
}

func (rs *ResultStore) getResultsFromCache(datasetID, runID string) (itemset.Frequencies, bool) {
	resIface, ok := rs.resultsCache.Get(GetRunKey(datasetID, runID))
	if !ok {
		return nil, false
	}
	res, ok := resIface.(itemset.Frequencies)
	return res, ok
}

func putResultsToFileManager(fm filestore.FileManager, datasetID, runID string, res itemset.Frequencies) error {
	reader, err := results.Encode(res)
	if err != nil {
		return err
	}
	path, fName := fm.GetResultsFilePathAndName(datasetID, runID)
	return fm.Create(path, fName, reader)
}

func getResultsFromFileManager(fm filestore.FileManager, datasetID, runID string) (itemset.Frequencies, error) {
	path, fName := fm.GetResultsFilePathAndName(datasetID, runID)
	rc, err := fm.Get(path, fName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return results.Read(rc)
}

// PutResults caches res and persists it to disk and, when configured, cloud.
func (rs *ResultStore) PutResults(datasetID, runID string, res itemset.Frequencies) error {
	logCtx := log.WithFields(log.Fields{"dataset": datasetID, "run": runID})
	logCtx.Debugln("[ResultStore] PutResults")

	rs.putResultsInCache(datasetID, runID, res)

	if err := putResultsToFileManager(rs.diskFileManager, datasetID, runID, res); err != nil {
		return errors.Wrapf(err, "failed to write results of run %s to disk", runID)
	}
	if sizer, ok := rs.diskFileManager.(objectSizer); ok {
		path, fName := rs.diskFileManager.GetResultsFilePathAndName(datasetID, runID)
		if size, err := sizer.GetObjectSize(path, fName); err == nil {
			metrics.RecordBytesSize(metrics.BytesResultsSize, float64(size))
		}
	}
	if rs.cloudFileManager != nil {
		if err := putResultsToFileManager(rs.cloudFileManager, datasetID, runID, res); err != nil {
			return errors.Wrapf(err, "failed to write results of run %s to cloud", runID)
		}
	}
	return nil
}

// GetResults looks a run up in cache, then disk, then cloud. A result found
// only in cloud is written back to disk.
func (rs *ResultStore) GetResults(datasetID, runID string) (itemset.Frequencies, error) {
	logCtx := log.WithFields(log.Fields{"dataset": datasetID, "run": runID})
	logCtx.Debugln("[ResultStore] GetResults")

	if res, ok := rs.getResultsFromCache(datasetID, runID); ok {
		return res, nil
	}

	writeToDisk := false
	res, err := getResultsFromFileManager(rs.diskFileManager, datasetID, runID)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrapf(err, "failed to read results of run %s from disk", runID)
		}
		if rs.cloudFileManager == nil {
			return nil, ErrResultsNotFound
		}
		res, err = getResultsFromFileManager(rs.cloudFileManager, datasetID, runID)
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrResultsNotFound
		} else if err != nil {
			return nil, errors.Wrapf(err, "failed to read results of run %s from cloud", runID)
		}
		writeToDisk = true
	}

	rs.putResultsInCache(datasetID, runID, res)
	if writeToDisk {
		if err := putResultsToFileManager(rs.diskFileManager, datasetID, runID, res); err != nil {
			logCtx.WithError(err).Error("Failed to write results to disk")
		}
	}
	return res, nil
}

// ListRuns lists the runs stored on disk for a dataset. Managers that cannot
// list return nil.
func (rs *ResultStore) ListRuns(datasetID string) []string {
	lister, ok := rs.diskFileManager.(runLister)
	if !ok {
		return nil
	}
	return lister.ListRuns(datasetID)
}

func putTransactionsToFileManager(fm filestore.FileManager, datasetID string, txs []itemset.Transaction) error {
	var buf bytes.Buffer
	if err := transactions.Encode(&buf, txs); err != nil {
		return err
	}
	path, fName := fm.GetTransactionsFilePathAndName(datasetID)
	return fm.Create(path, fName, bytes.NewReader(buf.Bytes()))
}

func getTransactionsFromFileManager(fm filestore.FileManager, datasetID string) ([]itemset.Transaction, error) {
	path, fName := fm.GetTransactionsFilePathAndName(datasetID)
	rc, err := fm.Get(path, fName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return transactions.Load(rc)
}

func existsInFileManager(fm filestore.FileManager, path, fName string) (bool, error) {
	rc, err := fm.Get(path, fName)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	rc.Close()
	return true, nil
}

// HasTransactions reports whether a dataset is stored on disk or cloud.
func (rs *ResultStore) HasTransactions(datasetID string) (bool, error) {
	path, fName := rs.diskFileManager.GetTransactionsFilePathAndName(datasetID)
	exists, err := existsInFileManager(rs.diskFileManager, path, fName)
	if err != nil {
		return false, errors.Wrapf(err, "failed to look up dataset %s on disk", datasetID)
	}
	if exists || rs.cloudFileManager == nil {
		return exists, nil
	}
	path, fName = rs.cloudFileManager.GetTransactionsFilePathAndName(datasetID)
	exists, err = existsInFileManager(rs.cloudFileManager, path, fName)
	return exists, errors.Wrapf(err, "failed to look up dataset %s on cloud", datasetID)
}

// PutTransactions stores a dataset on disk and, when configured, cloud.
func (rs *ResultStore) PutTransactions(datasetID string, txs []itemset.Transaction) error {
	log.WithFields(log.Fields{"dataset": datasetID, "transactions": len(txs)}).Debugln("[ResultStore] PutTransactions")

	if err := putTransactionsToFileManager(rs.diskFileManager, datasetID, txs); err != nil {
		return errors.Wrapf(err, "failed to write dataset %s to disk", datasetID)
	}
	if rs.cloudFileManager != nil {
		if err := putTransactionsToFileManager(rs.cloudFileManager, datasetID, txs); err != nil {
			return errors.Wrapf(err, "failed to write dataset %s to cloud", datasetID)
		}
	}
	return nil
}

// GetTransactions reads a dataset from disk, falling back to cloud.
func (rs *ResultStore) GetTransactions(datasetID string) ([]itemset.Transaction, error) {
	log.WithField("dataset", datasetID).Debugln("[ResultStore] GetTransactions")

	txs, err := getTransactionsFromFileManager(rs.diskFileManager, datasetID)
	if err == nil {
		return txs, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(err, "failed to read dataset %s from disk", datasetID)
	}
	if rs.cloudFileManager == nil {
		return nil, ErrTransactionsNotFound
	}
	txs, err = getTransactionsFromFileManager(rs.cloudFileManager, datasetID)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrTransactionsNotFound
	} else if err != nil {
		return nil, errors.Wrapf(err, "failed to read dataset %s from cloud", datasetID)
	}
	return txs, nil
}
