package s3

import (
	"fmt"
	"io"
	"os"

	"basket/filestore"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	log "github.com/sirupsen/logrus"
)

var _ filestore.FileManager = (*S3Driver)(nil)

type S3Driver struct {
	s3         *s3.S3
	uploader   *s3manager.Uploader
	BucketName string
	Region     string
}

func New(bucketName, region string) *S3Driver {
	sess := session.Must(session.NewSession(aws.NewConfig().WithRegion(region)))
	return &S3Driver{
		s3:         s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		BucketName: bucketName,
		Region:     region,
	}
}

// objectKey joins dir and fileName the way the path helpers build them.
func objectKey(dir, fileName string) string {
	return dir + fileName
}

func (sd *S3Driver) Create(dir, fileName string, reader io.Reader) error {
	log.WithFields(log.Fields{
		"Dir":        dir,
		"BucketName": sd.BucketName,
		"Region":     sd.Region,
	}).Debug("S3Driver Creating file")

	_, err := sd.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(sd.BucketName),
		Key:    aws.String(objectKey(dir, fileName)),
		Body:   reader,
	})
	return err
}

func (sd *S3Driver) Get(dir, fileName string) (io.ReadCloser, error) {
	input := s3.GetObjectInput{
		Bucket: aws.String(sd.BucketName),
		Key:    aws.String(objectKey(dir, fileName)),
	}
	op, err := sd.s3.GetObject(&input)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("s3://%s/%s: %w", sd.BucketName, objectKey(dir, fileName), os.ErrNotExist)
		}
		return nil, err
	}
	return op.Body, nil
}

func (sd *S3Driver) GetObjectSize(dir, fileName string) (int64, error) {
	input := s3.HeadObjectInput{
		Bucket: aws.String(sd.BucketName),
		Key:    aws.String(objectKey(dir, fileName)),
	}
	op, err := sd.s3.HeadObject(&input)
	if err != nil {
		return 0, err
	}
	return aws.Int64Value(op.ContentLength), nil
}

func (sd *S3Driver) GetDatasetDir(datasetID string) string {
	return fmt.Sprintf("datasets/%s/", datasetID)
}

func (sd *S3Driver) GetTransactionsFilePathAndName(datasetID string) (string, string) {
	return sd.GetDatasetDir(datasetID), filestore.TransactionsFileName
}

func (sd *S3Driver) GetResultsFilePathAndName(datasetID, runID string) (string, string) {
	path := fmt.Sprintf("%sruns/%s/", sd.GetDatasetDir(datasetID), runID)
	return path, filestore.ResultsFileName
}
