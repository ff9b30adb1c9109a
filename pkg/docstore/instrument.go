package docstore

import (
	"context"
	"strings"
	"time"
)

// Observer receives the duration and outcome of every store operation.
type Observer interface {
	ObserveStoreOperation(operation, collection string, duration time.Duration, err error)
}

type instrumented struct {
	next     Store
	observer Observer
}

// Instrument wraps next so that each call is reported to observer.
func Instrument(next Store, observer Observer) Store {
	if observer == nil {
		return next
	}
	return &instrumented{next: next, observer: observer}
}

func (s *instrumented) observe(op, path string, start time.Time, err error) {
	s.observer.ObserveStoreOperation(op, collectionOf(path), time.Since(start), err)
}

func (s *instrumented) Get(ctx context.Context, path string, dest interface{}) (found bool, err error) {
	defer func(start time.Time) { s.observe("get", path, start, err) }(time.Now())
	return s.next.Get(ctx, path, dest)
}

func (s *instrumented) Set(ctx context.Context, path string, value interface{}) (err error) {
	defer func(start time.Time) { s.observe("set", path, start, err) }(time.Now())
	return s.next.Set(ctx, path, value)
}

func (s *instrumented) Update(ctx context.Context, path string, fields map[string]interface{}) (err error) {
	defer func(start time.Time) { s.observe("update", path, start, err) }(time.Now())
	return s.next.Update(ctx, path, fields)
}

func (s *instrumented) Delete(ctx context.Context, path string) (err error) {
	defer func(start time.Time) { s.observe("delete", path, start, err) }(time.Now())
	return s.next.Delete(ctx, path)
}

func (s *instrumented) Push(ctx context.Context, path string, value interface{}) (key string, err error) {
	defer func(start time.Time) { s.observe("push", path, start, err) }(time.Now())
	return s.next.Push(ctx, path, value)
}

func (s *instrumented) SetIfAbsent(ctx context.Context, path string, value interface{}) (created bool, err error) {
	defer func(start time.Time) { s.observe("set_if_absent", path, start, err) }(time.Now())
	return s.next.SetIfAbsent(ctx, path, value)
}

func (s *instrumented) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}

func collectionOf(path string) string {
	trimmed := strings.TrimLeft(path, "/")
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}
