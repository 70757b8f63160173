package bitmap

import "github.com/infinivision/sectorfs/disk"

type Bitmap interface {
	Bits() int64
	NumClear() int64

	Find() (int64, error)
	Test(int64) bool
	Mark(int64)
	Clear(int64)

	FetchFrom(disk.Disk, int64) error
	WriteBack(disk.Disk, int64) error
}

const (
	BitsPerWord = 32
)

type bitmap struct {
	n  int64 // number of bits
	mp []uint32
}
