package core

import (
	"context"
	"path/filepath"
	"testing"

	blobcore "geomcore/internal/blob/core"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("GEOMCORE_STORAGE_DRIVER", "memory")
	store, err := OpenPersistentStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = store.Close() }()
	names, err := store.ListModels(context.Background())
	if err != nil || len(names) != 0 {
		t.Fatalf("fresh store: %v, %v", names, err)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	t.Setenv("GEOMCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("GEOMCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "models.db"))
	store, err := OpenPersistentStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("GEOMCORE_STORAGE_DRIVER", "etcd")
	if _, err := OpenPersistentStore(context.Background()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestOpenBlobStoreMemory(t *testing.T) {
	t.Setenv("GEOMCORE_BLOB_DRIVER", "memory")
	store, err := OpenBlobStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != blobcore.DriverMemory {
		t.Fatalf("driver = %s", store.Driver())
	}
}

func TestOpenBlobStoreFilesystem(t *testing.T) {
	t.Setenv("GEOMCORE_BLOB_DRIVER", "fs")
	t.Setenv("GEOMCORE_BLOB_FS_ROOT", t.TempDir())
	store, err := OpenBlobStore(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != blobcore.DriverFilesystem {
		t.Fatalf("driver = %s", store.Driver())
	}
}

func TestOpenBlobStoreUnknownDriver(t *testing.T) {
	t.Setenv("GEOMCORE_BLOB_DRIVER", "ftp")
	if _, err := OpenBlobStore(context.Background()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}
