package utils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const ExportBasePath = "./exports"

var (
	S3Session       *session.Session
	S3Bucket        string
	S3Region        string
	UseLocalStorage bool = true // Toggle: true = local, false = S3
)

func InitLocalStorage() error {
	return os.MkdirAll(ExportBasePath, 0o755)
}

func InitS3(bucket, region string) error {
	S3Bucket = bucket
	S3Region = region

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return err
	}

	S3Session = sess
	UseLocalStorage = false
	return nil
}

// StoreArchive persists an export archive and returns a URL the user can
// download it from. S3 archives are private; the returned URL is presigned
// and short-lived.
func StoreArchive(name string, data []byte) (string, error) {
	if UseLocalStorage {
		return storeArchiveLocal(name, data)
	}
	return storeArchiveS3(name, data)
}

func storeArchiveLocal(name string, data []byte) (string, error) {
	path := filepath.Join(ExportBasePath, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return "/exports/" + name, nil
}

func storeArchiveS3(name string, data []byte) (string, error) {
	if S3Session == nil {
		return "", fmt.Errorf("S3 not initialized, using local storage instead")
	}

	key := fmt.Sprintf("exports/%s/%s", time.Now().Format("2006/01"), name)
	svc := s3.New(S3Session)

	_, err := svc.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(S3Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         aws.String("private"),
	})
	if err != nil {
		return "", err
	}

	req, _ := svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(S3Bucket),
		Key:    aws.String(key),
	})
	return req.Presign(24 * time.Hour)
}

func GetStorageMode() string {
	if UseLocalStorage {
		return "local"
	}
	return "s3"
}

func SetStorageMode(useLocal bool) {
	UseLocalStorage = useLocal
}
