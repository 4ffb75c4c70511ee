package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/garyellow/taichung-eats-linebot/internal/errors"
	"github.com/garyellow/taichung-eats-linebot/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

type stubSource struct {
	name  string
	data  []byte
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Open(context.Context) (io.ReadCloser, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func csvBytes(t *testing.T, records []StoreRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, EnrichedColumns, records))
	return buf.Bytes()
}

func TestLoad_FromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, WriteFile(path, EnrichedColumns, sampleRecords()))

	c := New(testLogger(), []Source{FileSource{Path: path}})
	require.NoError(t, c.Load(context.Background()))

	assert.True(t, c.Loaded())
	assert.Equal(t, SourceFile, c.Source())
	assert.Equal(t, 2, c.Len())
}

func TestLoad_Idempotent(t *testing.T) {
	t.Parallel()

	src := &stubSource{name: "remote", data: csvBytes(t, sampleRecords())}
	c := New(testLogger(), []Source{src})

	require.NoError(t, c.Load(context.Background()))
	first := c.Records()
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, first, c.Records())
	assert.EqualValues(t, 1, src.calls.Load())
}

func TestLoad_ConcurrentCallersShareOneLoad(t *testing.T) {
	t.Parallel()

	src := &stubSource{name: "remote", data: csvBytes(t, sampleRecords())}
	c := New(testLogger(), []Source{src})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Load(context.Background())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, src.calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestLoad_FallsBackAndCaches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	local := filepath.Join(dir, "catalog.csv")
	remote := &stubSource{name: "remote", data: csvBytes(t, sampleRecords())}

	c := New(testLogger(),
		[]Source{FileSource{Path: local}, &stubSource{name: "broken", err: errors.New("boom")}, remote},
		WithCacheFile(local),
	)
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, "remote", c.Source())
	assert.Equal(t, 2, c.Len())

	_, err := os.Stat(local)
	require.NoError(t, err, "downloaded catalog should be cached locally")

	again := New(testLogger(), []Source{FileSource{Path: local}})
	require.NoError(t, again.Load(context.Background()))
	assert.Equal(t, 2, again.Len())
}

func TestLoad_NoSourceServesEmpty(t *testing.T) {
	t.Parallel()

	c := New(testLogger(), []Source{
		FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")},
		&stubSource{name: "remote", err: fmt.Errorf("no url: %w", apperrors.ErrNotFound)},
	})
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, SourceEmpty, c.Source())
	_, ok := c.FindByName("阿嬤早餐")
	assert.False(t, ok)
	assert.Empty(t, c.FindByCategoryAndRegion("台式傳統早餐", "西區"))
}

func TestFindByName(t *testing.T) {
	t.Parallel()

	records := append(sampleRecords(), StoreRecord{Name: "阿嬤早餐", Region: "北區", Address: "second"})
	c := NewFromRecords(records)

	for _, r := range records {
		got, ok := c.FindByName(r.Name)
		require.True(t, ok, r.Name)
		assert.Equal(t, r.Name, got.Name)
	}

	got, _ := c.FindByName("阿嬤早餐")
	assert.Equal(t, "台中市西區1號", got.Address, "first match wins")

	_, ok := c.FindByName("阿嬤")
	assert.False(t, ok, "no substring match")
	_, ok = c.FindByName("某店")
	assert.False(t, ok)
}

func TestFindByNamePrefix(t *testing.T) {
	t.Parallel()

	c := NewFromRecords(sampleRecords())

	got, ok := c.FindByNamePrefix("阿嬤")
	require.True(t, ok)
	assert.Equal(t, "阿嬤早餐", got.Name)

	_, ok = c.FindByNamePrefix("")
	assert.False(t, ok)
	_, ok = c.FindByNamePrefix("某店")
	assert.False(t, ok)
}

func TestFindByCategoryAndRegion(t *testing.T) {
	t.Parallel()

	records := []StoreRecord{
		{Name: "A", FoodType: "台式傳統早餐", Region: "西區"},
		{Name: "B", FoodType: "台式傳統早餐", Region: "北區"},
		{Name: "C", FoodType: "美味熱炒", Region: "西區"},
		{Name: "D", FoodType: "台式傳統早餐", Region: "西區"},
	}
	c := NewFromRecords(records)

	for _, ft := range FoodTypes {
		for _, region := range Regions {
			for _, r := range c.FindByCategoryAndRegion(ft, region) {
				assert.Equal(t, ft, r.FoodType)
				assert.Equal(t, region, r.Region)
			}
		}
	}

	got := c.FindByCategoryAndRegion("台式傳統早餐", "西區")
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "D", got[1].Name)
	assert.Empty(t, c.FindByCategoryAndRegion("自助饗宴", "南屯區"))
}

func TestFindByCategoryAndRegion_MissingColumns(t *testing.T) {
	t.Parallel()

	c := NewFromTable(&Table{
		Columns: []string{ColName, ColRegion},
		Records: []StoreRecord{{Name: "A", Region: "西區"}},
	})
	assert.Nil(t, c.FindByCategoryAndRegion("", "西區"))
}

func TestRecordsReturnsCopy(t *testing.T) {
	t.Parallel()

	c := NewFromRecords(sampleRecords())
	rs := c.Records()
	rs[0].Name = "changed"
	got, ok := c.FindByName("阿嬤早餐")
	assert.True(t, ok)
	assert.Equal(t, "阿嬤早餐", got.Name)
}
