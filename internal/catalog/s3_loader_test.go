package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectGetter struct {
	mock.Mock
}

func (m *mockObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, *params.Bucket, *params.Key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

// mockLoader is a mock implementation of the Loader interface for testing.
type mockLoader struct {
	loadFunc func(ctx context.Context, name string) ([]Record, error)
}

func (m *mockLoader) Load(ctx context.Context, name string) ([]Record, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, name)
	}
	return nil, errors.New("not implemented")
}

func TestS3Loader_Load(t *testing.T) {
	client := new(mockObjectGetter)
	body := gzipLines(t, `{"name":"Honey","price":30,"stock":5,"unit":"jar"}`)
	client.On("GetObject", mock.Anything, "bucket", "catalogs/farm.gz").
		Return(&s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil)

	loader := newS3Loader(client, "bucket", zerolog.Nop())
	records, err := loader.Load(context.Background(), "catalogs/farm.gz")

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Honey", records[0].Name)
	client.AssertExpectations(t)
}

func TestS3Loader_NoSuchKey(t *testing.T) {
	client := new(mockObjectGetter)
	client.On("GetObject", mock.Anything, "bucket", "missing.gz").
		Return(nil, &types.NoSuchKey{})

	_, err := newS3Loader(client, "bucket", zerolog.Nop()).Load(context.Background(), "missing.gz")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Loader_OtherError(t *testing.T) {
	client := new(mockObjectGetter)
	client.On("GetObject", mock.Anything, "bucket", "k").
		Return(nil, errors.New("access denied"))

	_, err := newS3Loader(client, "bucket", zerolog.Nop()).Load(context.Background(), "k")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "access denied")
}

func TestFallbackLoader_S3Success(t *testing.T) {
	remote := &mockLoader{
		loadFunc: func(ctx context.Context, name string) ([]Record, error) {
			assert.Equal(t, "catalogs/farm.gz", name, "S3 key should have prefix")
			return []Record{{Line: 1}}, nil
		},
	}
	local := &mockLoader{
		loadFunc: func(ctx context.Context, name string) ([]Record, error) {
			t.Error("file loader should not be called when S3 succeeds")
			return nil, errors.New("should not be called")
		},
	}

	records, err := NewFallbackLoader(remote, local, "catalogs/", zerolog.Nop()).Load(context.Background(), "farm.gz")

	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFallbackLoader_S3FailsFallsBackToLocal(t *testing.T) {
	remote := &mockLoader{
		loadFunc: func(ctx context.Context, name string) ([]Record, error) {
			return nil, errors.New("S3 connection failed")
		},
	}
	local := &mockLoader{
		loadFunc: func(ctx context.Context, name string) ([]Record, error) {
			assert.Equal(t, "farm.gz", name, "local path should not have prefix")
			return []Record{{Line: 1}, {Line: 2}}, nil
		},
	}

	records, err := NewFallbackLoader(remote, local, "catalogs/", zerolog.Nop()).Load(context.Background(), "farm.gz")

	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestFallbackLoader_ParseErrorIsNotRetried(t *testing.T) {
	remote := &mockLoader{
		loadFunc: func(ctx context.Context, name string) ([]Record, error) {
			return nil, &ParseError{Line: 7, Err: errors.New("bad json")}
		},
	}
	local := &mockLoader{
		loadFunc: func(ctx context.Context, name string) ([]Record, error) {
			t.Error("file loader should not be called for malformed S3 content")
			return nil, nil
		},
	}

	_, err := NewFallbackLoader(remote, local, "catalogs/", zerolog.Nop()).Load(context.Background(), "farm.gz")

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 7, parseErr.Line)
}

func TestFallbackLoader_S3LoaderNil(t *testing.T) {
	local := &mockLoader{
		loadFunc: func(ctx context.Context, name string) ([]Record, error) {
			return nil, ErrNotFound
		},
	}

	_, err := NewFallbackLoader(nil, local, "catalogs/", zerolog.Nop()).Load(context.Background(), "farm.gz")

	assert.ErrorIs(t, err, ErrNotFound)
}
