package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type markDoc struct {
	Mark20 float64 `json:"mark20"`
	Mark30 float64 `json:"mark30"`
	Mark50 float64 `json:"mark50"`
}

func TestRowStoreSetGetRow(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "Users/u1", map[string]interface{}{"username": "alice", "role": "student"}))

	var out map[string]string
	found, err := s.Get(ctx, "Users/u1", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "alice", out["username"])

	found, err = s.Get(ctx, "Users/missing", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRowStoreCollectionRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var all map[string]map[string]string
	found, err := s.Get(ctx, "Users", &all)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "Users/u1", map[string]string{"username": "a"}))
	require.NoError(t, s.Set(ctx, "Users/u2", map[string]string{"username": "b"}))

	found, err = s.Get(ctx, "/Users/", &all)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, all, 2)
	assert.Equal(t, "b", all["u2"]["username"])
}

func TestRowStoreNestedSetIsOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "ClassMarks/course_math_5A/s1", markDoc{Mark20: 15}))
	require.NoError(t, s.Set(ctx, "ClassMarks/course_math_5A/s1", markDoc{Mark30: 20}))

	var got markDoc
	found, err := s.Get(ctx, "ClassMarks/course_math_5A/s1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, markDoc{Mark20: 0, Mark30: 20, Mark50: 0}, got)
}

func TestRowStoreNestedDeletePrunesEmptyRow(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "ClassMarks/c1/s1", markDoc{Mark20: 1}))
	require.NoError(t, s.Delete(ctx, "ClassMarks/c1/s1"))

	found, err := s.Get(ctx, "ClassMarks/c1", nil)
	require.NoError(t, err)
	assert.False(t, found)

	var rows map[string]interface{}
	found, err = s.Get(ctx, "ClassMarks", &rows)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRowStoreUpdateMergesAndRemoves(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "Students/s1", map[string]interface{}{"grade": "5", "section": "A", "status": "active"}))
	require.NoError(t, s.Update(ctx, "Students/s1", map[string]interface{}{
		"section":      "B",
		"status":       nil,
		"meta/movedBy": "admin",
	}))

	var got map[string]interface{}
	_, err := s.Get(ctx, "Students/s1", &got)
	require.NoError(t, err)
	assert.Equal(t, "5", got["grade"])
	assert.Equal(t, "B", got["section"])
	assert.NotContains(t, got, "status")
	assert.Equal(t, map[string]interface{}{"movedBy": "admin"}, got["meta"])
}

func TestRowStoreSetNilDeletes(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "Posts/p1", map[string]interface{}{"likes": map[string]bool{"u1": true, "u2": true}}))
	require.NoError(t, s.Set(ctx, "Posts/p1/likes/u1", nil))

	var likes map[string]bool
	found, err := s.Get(ctx, "Posts/p1/likes", &likes)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, map[string]bool{"u2": true}, likes)

	require.NoError(t, s.Set(ctx, "Posts/p1", nil))
	found, err = s.Get(ctx, "Posts/p1", nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRowStorePushKeysAreOrdered(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	keys := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		key, err := s.Push(ctx, "TeacherAssignments", map[string]interface{}{"n": i})
		require.NoError(t, err)
		keys = append(keys, key)
		time.Sleep(2 * time.Millisecond)
	}
	assert.True(t, sort.StringsAreSorted(keys))

	nestedKey, err := s.Push(ctx, "Posts/p1/comments", map[string]string{"text": "hi"})
	require.NoError(t, err)
	var comment map[string]string
	found, err := s.Get(ctx, Join("Posts", "p1", "comments", nestedKey), &comment)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "hi", comment["text"])

	_, err = s.Push(ctx, "Posts", nil)
	assert.ErrorIs(t, err, ErrNilValue)
}

func TestRowStoreSetIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	created, err := s.SetIfAbsent(ctx, "CourseClaims/course_math_5A", map[string]string{"teacherId": "t1"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.SetIfAbsent(ctx, "CourseClaims/course_math_5A", map[string]string{"teacherId": "t2"})
	require.NoError(t, err)
	assert.False(t, created)

	var claim map[string]string
	_, err = s.Get(ctx, "CourseClaims/course_math_5A", &claim)
	require.NoError(t, err)
	assert.Equal(t, "t1", claim["teacherId"])

	_, err = s.SetIfAbsent(ctx, "CourseClaims/course_math_5A/nested", map[string]string{"x": "y"})
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRowStoreSetIfAbsentConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	var wg sync.WaitGroup
	wins := make(chan string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ok, err := s.SetIfAbsent(ctx, "CourseClaims/c1", map[string]int{"n": n})
			if err == nil && ok {
				wins <- "win"
			}
		}(i)
	}
	wg.Wait()
	close(wins)
	assert.Len(t, wins, 1)
}

func TestRowStoreRejectsCollectionWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	assert.ErrorIs(t, s.Set(ctx, "Users", map[string]string{"a": "b"}), ErrInvalidPath)
	assert.ErrorIs(t, s.Update(ctx, "Users", map[string]interface{}{"a": "b"}), ErrInvalidPath)
	assert.ErrorIs(t, s.Delete(ctx, "Users"), ErrInvalidPath)
	assert.ErrorIs(t, s.Set(ctx, "Users//x", "v"), ErrInvalidPath)
	assert.ErrorIs(t, s.Set(ctx, "Users/a.b", "v"), ErrInvalidPath)
}

func TestRowStoreNumbersSurviveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.Set(ctx, "Students/s1", map[string]interface{}{"grade": 5}))
	var generic map[string]interface{}
	_, err := s.Get(ctx, "Students/s1", &generic)
	require.NoError(t, err)
	assert.Equal(t, json.Number("5"), generic["grade"])
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
}

func (o *recordingObserver) ObserveStoreOperation(operation, collection string, _ time.Duration, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, operation+":"+collection)
}

func TestInstrumentReportsOperations(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	s := Instrument(NewMemory(), obs)

	require.NoError(t, s.Set(ctx, "Users/u1", map[string]string{"a": "b"}))
	_, err := s.Get(ctx, "/Users/u1", nil)
	require.NoError(t, err)
	_, err = s.Push(ctx, "Posts", map[string]string{"text": "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"set:Users", "get:Users", "push:Posts"}, obs.ops)
}
