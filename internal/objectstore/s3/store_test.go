package s3

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeleteAPI struct {
	err  error
	keys []string
}

func (f *fakeDeleteAPI) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.keys = append(f.keys, aws.ToString(in.Key))
	if f.err != nil {
		return nil, f.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresignAPI struct{ err error }

func (f fakePresignAPI) PresignPutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3.example/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key), Method: http.MethodPut}, nil
}

func responseError(status int) error {
	return &awshttp.ResponseError{
		ResponseError: &smithyhttp.ResponseError{
			Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
			Err:      errors.New(http.StatusText(status)),
		},
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "ok"},
		{name: "404 is success", err: responseError(http.StatusNotFound)},
		{name: "no such key is success", err: &types.NoSuchKey{}},
		{name: "403", err: responseError(http.StatusForbidden), wantErr: objectstore.ErrAccessDenied},
		{name: "no bucket", err: &types.NoSuchBucket{}, wantErr: objectstore.ErrBucketNotFound},
		{name: "other", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeDeleteAPI{err: tt.err}
			s := &Store{api: api, bucket: "vault"}

			err := s.Delete(context.Background(), "vault/k")
			assert.Equal(t, []string{"vault/k"}, api.keys)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.name == "other":
				var oe *objectstore.ObjectError
				require.ErrorAs(t, err, &oe)
				assert.Equal(t, "Delete", oe.Op)
				assert.Equal(t, "vault/k", oe.Key)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestPresignPut(t *testing.T) {
	s := &Store{presign: fakePresignAPI{}, bucket: "vault"}
	url, err := s.PresignPut(context.Background(), "vault/k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://s3.example/vault/vault/k", url)

	s = &Store{presign: fakePresignAPI{err: errors.New("no creds")}, bucket: "vault"}
	_, err = s.PresignPut(context.Background(), "vault/k", time.Minute)
	var oe *objectstore.ObjectError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "PresignPut", oe.Op)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestNew_AppliesOptions(t *testing.T) {
	origLoad, origNew := loadDefaultAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		assert.NotNil(t, lo.Credentials)
		return aws.Config{Region: lo.Region, Credentials: lo.Credentials}, nil
	}

	var captured s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&captured)
		}
		return s3.NewFromConfig(cfg, optFns...)
	}

	s, err := New(context.Background(), Config{
		Bucket: "vault", Endpoint: "http://127.0.0.1:9000", AccessKeyID: "admin", SecretAccessKey: "secret", UsePathStyle: true,
	})
	require.NoError(t, err)
	require.NotNil(t, captured.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *captured.BaseEndpoint)
	assert.True(t, captured.UsePathStyle)

	url, err := s.PresignPut(context.Background(), "vault/k", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/vault/vault/k?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestNew_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("bad profile")
	}

	_, err := New(context.Background(), Config{Bucket: "vault"})
	assert.ErrorContains(t, err, "bad profile")
}
