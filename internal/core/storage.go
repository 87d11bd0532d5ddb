package core

import (
	"context"
	"fmt"
	"os"

	blobcore "geomcore/internal/blob/core"
	blobfs "geomcore/internal/infra/blob/fs"
	blobmem "geomcore/internal/infra/blob/memory"
	blobs3 "geomcore/internal/infra/blob/s3"
	"geomcore/internal/persistence"
	"geomcore/internal/persistence/memory"
	"geomcore/internal/persistence/postgres"
	"geomcore/internal/persistence/sqlite"
)

// StorageDriver identifies a concrete snapshot store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenPersistentStore selects a snapshot backend using environment
// variables, defaulting to sqlite:
//
//	GEOMCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	GEOMCORE_SQLITE_PATH: path to sqlite file (default ./geomcore.db)
//	GEOMCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(ctx context.Context) (persistence.Store, error) {
	driver := os.Getenv("GEOMCORE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.New(), nil
	case StorageSQLite:
		return sqlite.New(os.Getenv("GEOMCORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.New(ctx, os.Getenv("GEOMCORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// OpenBlobStore selects an archive blob backend using environment
// variables, defaulting to the filesystem:
//
//	GEOMCORE_BLOB_DRIVER: fs|memory|s3 (default fs)
//	GEOMCORE_BLOB_FS_ROOT: directory for the fs driver
//	GEOMCORE_BLOB_S3_*: see the s3 package
func OpenBlobStore(ctx context.Context) (blobcore.Store, error) {
	driver := os.Getenv("GEOMCORE_BLOB_DRIVER")
	if driver == "" {
		driver = string(blobcore.DriverFilesystem)
	}
	switch blobcore.Driver(driver) {
	case blobcore.DriverFilesystem:
		return blobfs.New(os.Getenv("GEOMCORE_BLOB_FS_ROOT"))
	case blobcore.DriverMemory:
		return blobmem.New(), nil
	case blobcore.DriverS3:
		return blobs3.OpenFromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
