package bootstrap

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	buckets   map[string]bool
	objects   map[string][]byte
	createErr error
	deleted   []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeS3) CreateBucket(_ context.Context, params *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	name := aws.ToString(params.Bucket)
	if f.buckets[name] {
		return nil, &types.BucketAlreadyOwnedByYou{}
	}
	f.buckets[name] = true
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	key := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, &types.NoSuchKey{}
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(params.Bucket)+"/"+aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func TestBootstrap(t *testing.T) {
	client := newFakeS3()

	res, err := Bootstrap(context.Background(), Config{
		S3Client:        client,
		Bucket:          "dev-pki",
		RootCertificate: []byte("ROOT"),
	})
	require.NoError(t, err)
	require.Equal(t, "dev-pki", res.Bucket)
	require.True(t, res.RootPublished)
	require.Equal(t, []byte("ROOT"), client.objects["dev-pki/rootCA.crt"])

	// second run reuses the bucket
	res, err = Bootstrap(context.Background(), Config{S3Client: client, Bucket: "dev-pki", CleanResources: true})
	require.NoError(t, err)
	require.False(t, res.RootPublished)
	require.Equal(t, []string{"dev-pki/rootCA.crt"}, client.deleted)
	require.Empty(t, client.objects)
}

func TestBootstrap_validation(t *testing.T) {
	_, err := Bootstrap(context.Background(), Config{Bucket: "dev-pki"})
	require.Error(t, err)

	_, err = Bootstrap(context.Background(), Config{S3Client: newFakeS3()})
	require.Error(t, err)
}

func TestCreateBucket_error(t *testing.T) {
	client := newFakeS3()
	client.createErr = errors.New("AccessDenied")

	require.ErrorContains(t, CreateBucket(context.Background(), client, "dev-pki"), "AccessDenied")
}
