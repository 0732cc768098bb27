package gcstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"basket/filestore"

	"cloud.google.com/go/storage"
)

var _ filestore.FileManager = (*GCSDriver)(nil)

type GCSDriver struct {
	client     *storage.Client
	BucketName string
}

func New(bucketName string) (*GCSDriver, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	d := &GCSDriver{
		BucketName: bucketName,
		client:     client,
	}
	return d, nil
}

func (gcsd *GCSDriver) Create(dir, fileName string, reader io.Reader) error {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(dir + fileName)
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, reader); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (gcsd *GCSDriver) Get(dir, fileName string) (io.ReadCloser, error) {
	ctx := context.Background()
	obj := gcsd.client.Bucket(gcsd.BucketName).Object(dir + fileName)
	rc, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s%s: %w", gcsd.BucketName, dir, fileName, os.ErrNotExist)
	}
	return rc, err
}

func (gcsd *GCSDriver) GetDatasetDir(datasetID string) string {
	return fmt.Sprintf("datasets/%s/", datasetID)
}

func (gcsd *GCSDriver) GetTransactionsFilePathAndName(datasetID string) (string, string) {
	return gcsd.GetDatasetDir(datasetID), filestore.TransactionsFileName
}

func (gcsd *GCSDriver) GetResultsFilePathAndName(datasetID, runID string) (string, string) {
	path := fmt.Sprintf("%sruns/%s/", gcsd.GetDatasetDir(datasetID), runID)
	return path, filestore.ResultsFileName
}
