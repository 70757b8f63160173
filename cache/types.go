package cache

import (
	"container/list"
	"sync"

	"github.com/infinivision/sectorfs/disk"
	"github.com/nnsgmsone/damrey/logger"
)

type Frame interface {
	Sync() error
	Buffer() []byte
	SectorNumber() int64
}

type Cache interface {
	Run()
	Stop()
	Release(Frame)
	Get(int64) (Frame, error)
}

type frame struct {
	n  int32 // refer
	cp *cache
	s  disk.Sector
	e  *list.Element
}

type cache struct {
	sync.Mutex
	n   int // frame limit
	d   disk.Disk
	log logger.Log
	mp  map[int64]*frame
	lq  *list.List // front is hottest
	ch  chan struct{}
}

func (f *frame) Sync() error {
	return f.cp.d.Write(f.s)
}

func (f *frame) Buffer() []byte {
	return f.s.Buffer()
}

func (f *frame) SectorNumber() int64 {
	return f.s.SectorNumber()
}
