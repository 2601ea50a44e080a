package fetch

import (
	"github.com/peterbourgon/diskv"
)

// BlockTransform determines how diskv should partition folders.
func BlockTransform(blockSize int) func(string) []string {
	return func(s string) []string {
		var (
			sliceSize = len(s) / blockSize
			pathSlice = make([]string, sliceSize)
		)
		for i := 0; i < sliceSize; i++ {
			from, to := i*blockSize, (i*blockSize)+blockSize
			pathSlice[i] = s[from:to]
		}
		return pathSlice
	}
}

// NewCache creates the on-disk store for downloaded sources. Keys are hex digests, so four levels of folders are
// plenty.
func NewCache(dir string) *diskv.Diskv {
	return diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    BlockTransform(16),
		CacheSizeMax: 64 * 1024 * 1024,
		Compression:  diskv.NewGzipCompression(),
	})
}
