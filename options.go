package pmidx

import "os"

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
)

// Options configures a Store.
type Options struct {
	// DirPath is the directory the Store locks for its exclusive use.
	// Only the lock file is written there.
	DirPath string
	// LRUSize is the capacity, in entries, of NumericIndex's read
	// cache. Zero falls back to numindex.DefaultCacheSize.
	LRUSize int
}

// DefaultOptions returns sane defaults rooted at a fresh temp directory.
func DefaultOptions() Options {
	return Options{
		DirPath: tempStoreDir(),
		LRUSize: 1024,
	}
}

func tempStoreDir() string {
	dir, _ := os.MkdirTemp("", "pmidx-temp-")
	return dir
}
