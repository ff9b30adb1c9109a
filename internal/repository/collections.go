package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/school-portal-api/pkg/docstore"
)

// Collection names in the document store.
const (
	CollectionUsers              = "Users"
	CollectionStudents           = "Students"
	CollectionTeachers           = "Teachers"
	CollectionParents            = "Parents"
	CollectionSchoolAdmins       = "School_Admins"
	CollectionCourses            = "Courses"
	CollectionCourseClaims       = "CourseClaims"
	CollectionTeacherAssignments = "TeacherAssignments"
	CollectionClassMarks         = "ClassMarks"
	CollectionPosts              = "Posts"
	CollectionExportJobs         = "ExportJobs"
	CollectionAuditLogs          = "AuditLogs"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

func loadRow(ctx context.Context, store docstore.Store, collection, key string, dest interface{}) error {
	if key == "" {
		return ErrNotFound
	}
	path := docstore.Join(collection, key)
	found, err := store.Get(ctx, path, dest)
	if err != nil {
		if errors.Is(err, docstore.ErrInvalidPath) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s: %w", path, err)
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func loadCollection[T any](ctx context.Context, store docstore.Store, collection string) (map[string]T, error) {
	rows := map[string]T{}
	if _, err := store.Get(ctx, collection, &rows); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return rows, nil
}

func insertRow(ctx context.Context, store docstore.Store, collection, key string, value interface{}) error {
	path := docstore.Join(collection, key)
	created, err := store.SetIfAbsent(ctx, path, value)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if !created {
		return fmt.Errorf("create %s: key already exists", path)
	}
	return nil
}

func deleteRow(ctx context.Context, store docstore.Store, collection, key string) error {
	path := docstore.Join(collection, key)
	if err := store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
