package storage

import (
	"context"
	"errors"
	"testing"

	minio "github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	host, secure := splitEndpoint("")
	require.Equal(t, "s3.amazonaws.com", host)
	require.True(t, secure)

	host, secure = splitEndpoint("http://127.0.0.1:9000")
	require.Equal(t, "127.0.0.1:9000", host)
	require.False(t, secure)

	host, secure = splitEndpoint("https://s3.eu-central-1.amazonaws.com")
	require.Equal(t, "s3.eu-central-1.amazonaws.com", host)
	require.True(t, secure)

	host, secure = splitEndpoint("minio.internal:9000")
	require.Equal(t, "minio.internal:9000", host)
	require.True(t, secure)
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	require.True(t, IsRetryable(minio.ErrorResponse{StatusCode: 503}))
	require.False(t, IsRetryable(minio.ErrorResponse{StatusCode: 403}))
	require.False(t, IsRetryable(context.Canceled))
	require.True(t, IsRetryable(errors.New("http: connection reset by peer")))
	require.False(t, IsRetryable(errors.New("something unrelated")))
}

func TestContentType(t *testing.T) {
	require.Equal(t, "application/json", contentType("2026/08/23/frontend-en.json"))
	require.Equal(t, "application/zstd", contentType("2026/08/23/frontend-en.json.zst"))
}
