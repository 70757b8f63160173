package bitmap

import (
	"encoding/binary"

	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/disk"
	"github.com/infinivision/sectorfs/errmsg"
)

func New(n int64) *bitmap {
	return &bitmap{
		n:  n,
		mp: make([]uint32, (n+BitsPerWord-1)/BitsPerWord),
	}
}

func (b *bitmap) Bits() int64 {
	return b.n
}

func (b *bitmap) NumClear() int64 {
	var cnt int64

	for i := int64(0); i < b.n; i++ {
		if !b.Test(i) {
			cnt++
		}
	}
	return cnt
}

func (b *bitmap) Find() (int64, error) {
	for i := int64(0); i < b.n; i++ {
		if !b.Test(i) {
			b.Mark(i)
			return i, nil
		}
	}
	return -1, errmsg.OutOfSpace
}

func (b *bitmap) Test(i int64) bool {
	return b.mp[i/BitsPerWord]&(1<<uint(i%BitsPerWord)) != 0
}

func (b *bitmap) Mark(i int64) {
	b.mp[i/BitsPerWord] |= 1 << uint(i%BitsPerWord)
}

func (b *bitmap) Clear(i int64) {
	b.mp[i/BitsPerWord] &^= 1 << uint(i%BitsPerWord)
}

func (b *bitmap) FetchFrom(d disk.Disk, sn int64) error {
	s, err := d.Read(sn, make([]byte, constant.SectorSize))
	if err != nil {
		return err
	}
	buf := s.Buffer()
	for i := range b.mp {
		b.mp[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return nil
}

func (b *bitmap) WriteBack(d disk.Disk, sn int64) error {
	s, err := d.Read(sn, make([]byte, constant.SectorSize))
	if err != nil {
		return err
	}
	buf := s.Buffer()
	for i := range b.mp {
		binary.LittleEndian.PutUint32(buf[i*4:], b.mp[i])
	}
	return d.Write(s)
}
