// Package s3test serves an in-memory S3 bucket for corpus tests.
package s3test

import (
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// Client starts a fake S3 server holding one empty bucket named after the
// test, and returns a client for it and the bucket name. The server stops
// when the test ends.
func Client(t testing.TB) (*s3.S3, string) {
	t.Helper()
	ts := httptest.NewServer(gofakes3.New(s3mem.New()).Server())
	t.Cleanup(ts.Close)

	sess, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials("vhash", "vhash", ""),
		Endpoint:         aws.String(ts.URL),
		Region:           aws.String("us-east-1"),
		DisableSSL:       aws.Bool(true),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		t.Fatalf("s3 session: %v", err)
	}
	client := s3.New(sess)

	bucket := bucketName(t.Name())
	if _, err := client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("create bucket %s: %v", bucket, err)
	}
	return client, bucket
}

// bucketName turns a test name into a valid bucket name. Each test gets
// its own server, so names only need to be valid, not unique.
func bucketName(testName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return '-'
	}, testName)
	if len(name) > 40 {
		name = name[:40]
	}
	return fmt.Sprintf("vhash-%s", strings.Trim(name, "-"))
}
