package volume

import (
	"io"
	"sync"

	"github.com/infinivision/sectorfs/bitmap"
	"github.com/infinivision/sectorfs/cache"
	"github.com/infinivision/sectorfs/disk"
	"github.com/infinivision/sectorfs/header"
	"github.com/nnsgmsone/damrey/logger"
)

/*
Volume ties a sector device, its free-space map and file headers together.
Files carry no names; a file is identified by the sector holding its
header. Mutating operations are serialized by the volume, every file
header itself is single-writer.
*/
type Volume interface {
	Close() error
	Flush() error

	Create(int32) (int64, error)
	Open(int64) (File, error)
	Remove(int64) error
}

type File interface {
	Sync() error
	Length() int32
	Sector() int64
	Dump(io.Writer) error
	ReadAt([]byte, int32) (int, error)
	WriteAt([]byte, int32) (int, error)
}

type Config struct {
	Path      string
	CacheSize int
	Mmap      bool // map the device into memory instead of ReadAt/WriteAt
	LogWriter io.Writer
}

type volume struct {
	sync.Mutex
	d   disk.Disk
	b   bitmap.Bitmap
	c   cache.Cache
	log logger.Log
}

type file struct {
	v  *volume
	h  header.Header
	hn int64 // home sector of the header
}
