// Package core defines the abstraction over blob storage backends used
// to keep serialized model archives. Higher layers write an archive once
// under a key and read it back verbatim; backends only differ in where
// the bytes live.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend.
type Driver string

const (
	// DriverFilesystem stores archives under a local directory root.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores archives in an S3 or MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps archives in process memory, for tests.
	DriverMemory Driver = "memory"
)

// ErrNotFound is returned when no blob exists under a key.
var ErrNotFound = errors.New("blob: not found")

// ErrExists is returned when Put would overwrite an existing blob.
// Archives are immutable once written; writers pick a new key instead.
var ErrExists = errors.New("blob: already exists")

// PutOptions carries optional metadata stored with a blob.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes one stored archive blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the backend contract. Keys are flat, slash-separated names;
// Put refuses to overwrite.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}
