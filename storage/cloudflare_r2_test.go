package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPutter struct {
	mock.Mock
}

func (m *mockPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUploadReturnsPublicLocation(t *testing.T) {
	putter := new(mockPutter)
	putter.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return aws.ToString(in.Bucket) == "rosters" &&
			aws.ToString(in.Key) == "rosters/tournament_1/a.csv" &&
			aws.ToString(in.ContentType) == "text/csv" &&
			string(body) == "team_id\n"
	})).Return(&s3.PutObjectOutput{ETag: aws.String(`"abc"`)}, nil)

	u := newCloudflareR2Uploader(putter, "rosters", "https://cdn.example.com/")
	res, err := u.Upload(context.Background(), "rosters/tournament_1/a.csv", "text/csv", strings.NewReader("team_id\n"))

	require.NoError(t, err)
	assert.Equal(t, "abc", res.ETag)
	assert.Equal(t, "https://cdn.example.com/rosters/tournament_1/a.csv", res.Location)
	putter.AssertExpectations(t)
}

func TestUploadWrapsClientError(t *testing.T) {
	putter := new(mockPutter)
	putter.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	u := newCloudflareR2Uploader(putter, "rosters", "https://cdn.example.com")
	_, err := u.Upload(context.Background(), "k.csv", "text/csv", strings.NewReader(""))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "k.csv")
}

func TestGetPublicURL(t *testing.T) {
	u := newCloudflareR2Uploader(nil, "b", "https://cdn.example.com")
	assert.Equal(t, "https://cdn.example.com/x/y.csv", u.GetPublicURL("/x/y.csv"))
	assert.Empty(t, u.GetPublicURL(""))

	u = newCloudflareR2Uploader(nil, "b", "")
	assert.Empty(t, u.GetPublicURL("x"))
}

func TestNewCloudflareR2UploaderRequiresAllFields(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"})
	assert.Error(t, err)
}
