package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   aws.String(f.types[key]),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	storage := &S3Storage{client: fake, bucket: "items"}

	require.NoError(t, storage.Save(ctx, "abc", strings.NewReader("img"), "image/jpeg"))
	require.Contains(t, fake.objects, "items/abc")

	obj, err := storage.Get(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", obj.ContentType)
	require.Equal(t, int64(3), obj.Size)
	content, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.Equal(t, "img", string(content))

	require.NoError(t, storage.Delete(ctx, "abc"))
	_, err = storage.Get(ctx, "abc")
	require.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Storage_RejectsInvalidKey(t *testing.T) {
	storage := &S3Storage{client: newFakeS3(), bucket: "items"}

	_, err := storage.Get(context.Background(), "../x")
	require.ErrorIs(t, err, ErrInvalidKey)
}
