package disk

import (
	"os"
)

type Sector interface {
	Buffer() []byte
	SectorNumber() int64
}

type Disk interface {
	Close() error
	Flush() error
	Sectors() int64
	Write(Sector) error
	Read(int64, []byte) (Sector, error)
}

type sector struct {
	sn     int64 // sector number
	buffer []byte
}

type disk struct {
	cnt int64 // sector count
	fp  *os.File
}

type mdisk struct {
	cnt int64
	buf []byte
}

func (a *sector) Buffer() []byte {
	return a.buffer
}

func (a *sector) SectorNumber() int64 {
	return a.sn
}
