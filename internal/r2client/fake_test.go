package r2client

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type memObject struct {
	data     []byte
	etag     string
	metadata map[string]string
}

// memS3 is an in-memory ObjectAPI honouring If-None-Match and If-Match.
type memS3 struct {
	mu      sync.Mutex
	objects map[string]memObject
	seq     int
	putErr  error
}

func newMemS3() *memS3 {
	return &memS3{objects: make(map[string]memObject)}
}

var errPrecondition = &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return nil, m.putErr
	}

	key := aws.ToString(in.Key)
	cur, exists := m.objects[key]
	if aws.ToString(in.IfNoneMatch) == "*" && exists {
		return nil, errPrecondition
	}
	if in.IfMatch != nil && (!exists || *in.IfMatch != `"`+cur.etag+`"`) {
		return nil, errPrecondition
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.seq++
	etag := "etag-" + strconv.Itoa(m.seq)
	m.objects[key] = memObject{data: data, etag: etag, metadata: in.Metadata}
	return &s3.PutObjectOutput{ETag: aws.String(`"` + etag + `"`)}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:     io.NopCloser(bytes.NewReader(obj.data)),
		ETag:     aws.String(`"` + obj.etag + `"`),
		Metadata: obj.metadata,
	}, nil
}

func (m *memS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ETag: aws.String(`"` + obj.etag + `"`)}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (m *memS3) raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[key].data
}

func (m *memS3) set(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.objects[key] = memObject{data: data, etag: "etag-" + strconv.Itoa(m.seq)}
}
