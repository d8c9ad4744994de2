// Package s3 streams corpora from S3 objects.
package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/jrhy/vhash/corpus"
)

type S3Interface interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
}

// Open returns a corpus.Scanner over the named object. The object body is
// streamed and closed when the scanner runs out of words.
func Open(ctx context.Context, client S3Interface, bucket, key string) (*corpus.Scanner, error) {
	input := s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	output, err := client.GetObjectWithContext(ctx, &input)
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	return corpus.NewScanner(output.Body), nil
}

// Store uploads a corpus to the named object.
func Store(ctx context.Context, client S3Interface, bucket, key string, body io.ReadSeeker) error {
	input := s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	_, err := client.PutObjectWithContext(ctx, &input)
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
