package header

import (
	"io"

	"github.com/infinivision/sectorfs/bitmap"
	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/disk"
	"github.com/nnsgmsone/damrey/logger"
)

/*
Header locates a file's data sectors on disk. It is a fixed-size record
sized to fit exactly one sector: a length in bytes, a sector count, and
NumDirect sector slots. Slots 0..NumDirect-2 point at data sectors; the
last slot points at a nested header holding the remainder once the file
outgrows DirectCapacity. Whether the last slot holds data or a chain
anchor is derived from the length, never stored.

A header is single-writer: callers serialize all access to the file it
describes.
*/
type Header interface {
	FileLength() int32

	Allocate(disk.Disk, bitmap.Bitmap, int32) error
	Extend(disk.Disk, bitmap.Bitmap, int32) error
	Deallocate(disk.Disk, bitmap.Bitmap) error
	ByteToSector(disk.Disk, int32) (int64, error)

	FetchFrom(disk.Disk, int64) error
	WriteBack(disk.Disk, int64) error

	Dump(io.Writer, disk.Disk) error
}

type header struct {
	bytes   int32
	sectors int32
	direct  [constant.NumDirect]int32
	chain   *header // owned, faulted in from the chain slot on demand
	log     logger.Log
}
