package header

import (
	"encoding/binary"

	"github.com/infinivision/sectorfs/bitmap"
	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/disk"
	"github.com/infinivision/sectorfs/errmsg"
	"github.com/nnsgmsone/damrey/logger"
)

func New(log logger.Log) *header {
	return &header{log: log}
}

func (h *header) FileLength() int32 {
	return h.bytes
}

func (h *header) Allocate(d disk.Disk, b bitmap.Bitmap, size int32) error {
	if size < 0 || size > constant.MaxFileSize {
		return errmsg.TooLarge
	}
	if required(size) > b.NumClear() {
		return errmsg.OutOfSpace
	}
	return h.allocate(d, b, size)
}

func (h *header) Extend(d disk.Disk, b bitmap.Bitmap, size int32) error {
	newSectors := divRoundUp(size, constant.SectorSize)
	if newSectors > constant.MaxFileSectors {
		return errmsg.TooLarge
	}
	if size <= h.bytes {
		return nil
	}
	if n := b.NumClear(); n < int64(newSectors) || n < required(size)-required(h.bytes) {
		return errmsg.OutOfSpace
	}
	switch {
	case size <= constant.DirectCapacity: // direct to direct
		for i := h.sectors; i < newSectors; i++ {
			sn, err := b.Find()
			if err != nil {
				return err
			}
			h.direct[i] = int32(sn)
		}
	case h.bytes <= constant.DirectCapacity: // direct to indirect
		for i := h.sectors; i < constant.NumDirect-1; i++ {
			sn, err := b.Find()
			if err != nil {
				return err
			}
			h.direct[i] = int32(sn)
		}
		if err := h.attach(d, b, size-constant.DirectCapacity); err != nil {
			return err
		}
	default: // indirect to indirect, the anchor sector does not move
		c, err := h.fault(d)
		if err != nil {
			return err
		}
		if err := c.Extend(d, b, size-constant.DirectCapacity); err != nil {
			return err
		}
		if err := c.WriteBack(d, int64(h.direct[constant.NumDirect-1])); err != nil {
			return err
		}
	}
	h.bytes = size
	h.sectors = newSectors
	return nil
}

func (h *header) Deallocate(d disk.Disk, b bitmap.Bitmap) error {
	if !h.chained() {
		for i := int32(0); i < h.sectors; i++ {
			h.clear(b, int64(h.direct[i]))
		}
		return nil
	}
	// data before chain metadata: a crash mid-way leaves the chain reachable
	for i := 0; i < constant.NumDirect-1; i++ {
		h.clear(b, int64(h.direct[i]))
	}
	c, err := h.fault(d)
	if err != nil {
		return err
	}
	if err := c.Deallocate(d, b); err != nil {
		return err
	}
	h.clear(b, int64(h.direct[constant.NumDirect-1]))
	return nil
}

// ByteToSector maps a byte offset within the file to the sector holding it.
// The offset must be in range; no bound check is made here.
func (h *header) ByteToSector(d disk.Disk, offset int32) (int64, error) {
	if !h.chained() || offset < constant.DirectCapacity {
		return int64(h.direct[offset/constant.SectorSize]), nil
	}
	c, err := h.fault(d)
	if err != nil {
		return -1, err
	}
	return c.ByteToSector(d, offset-constant.DirectCapacity)
}

func (h *header) FetchFrom(d disk.Disk, sn int64) error {
	s, err := d.Read(sn, make([]byte, constant.SectorSize))
	if err != nil {
		return err
	}
	buf := s.Buffer()
	h.bytes = int32(binary.LittleEndian.Uint32(buf))
	h.sectors = int32(binary.LittleEndian.Uint32(buf[constant.IntSize:]))
	for i := 0; i < constant.NumDirect; i++ {
		h.direct[i] = int32(binary.LittleEndian.Uint32(buf[(2+i)*constant.IntSize:]))
	}
	h.chain = nil
	return nil
}

func (h *header) WriteBack(d disk.Disk, sn int64) error {
	s, err := d.Read(sn, make([]byte, constant.SectorSize))
	if err != nil {
		return err
	}
	buf := s.Buffer()
	binary.LittleEndian.PutUint32(buf, uint32(h.bytes))
	binary.LittleEndian.PutUint32(buf[constant.IntSize:], uint32(h.sectors))
	for i := 0; i < constant.NumDirect; i++ {
		binary.LittleEndian.PutUint32(buf[(2+i)*constant.IntSize:], uint32(h.direct[i]))
	}
	return d.Write(s)
}

// allocate claims sectors without a space check; Allocate has already
// verified the map can supply every data sector and chain anchor.
func (h *header) allocate(d disk.Disk, b bitmap.Bitmap, size int32) error {
	h.bytes = size
	h.sectors = divRoundUp(size, constant.SectorSize)
	if size <= constant.DirectCapacity {
		for i := int32(0); i < h.sectors; i++ {
			sn, err := b.Find()
			if err != nil {
				return err
			}
			h.direct[i] = int32(sn)
		}
		return nil
	}
	for i := 0; i < constant.NumDirect-1; i++ {
		sn, err := b.Find()
		if err != nil {
			return err
		}
		h.direct[i] = int32(sn)
	}
	return h.attach(d, b, size-constant.DirectCapacity)
}

// attach allocates a nested header for the remainder and persists it before
// committing its anchor to the chain slot, so a non-empty chain slot always
// names a fully written header.
func (h *header) attach(d disk.Disk, b bitmap.Bitmap, remainder int32) error {
	c := New(h.log)
	if err := c.allocate(d, b, remainder); err != nil {
		return err
	}
	an, err := b.Find()
	if err != nil {
		return err
	}
	if err := c.WriteBack(d, an); err != nil {
		return err
	}
	h.chain = c
	h.direct[constant.NumDirect-1] = int32(an)
	return nil
}

// fault materializes the owned nested header from the chain slot.
func (h *header) fault(d disk.Disk) (*header, error) {
	if h.chain == nil {
		c := New(h.log)
		if err := c.FetchFrom(d, int64(h.direct[constant.NumDirect-1])); err != nil {
			return nil, err
		}
		h.chain = c
	}
	return h.chain, nil
}

// clear releases one sector. A clear bit here means the map and this header
// have already diverged, which only a buggy caller can produce.
func (h *header) clear(b bitmap.Bitmap, sn int64) {
	if !b.Test(sn) {
		h.log.Fatalf("deallocate: sector %v already clear\n", sn)
	}
	b.Clear(sn)
}

func (h *header) chained() bool {
	return h.bytes > constant.DirectCapacity
}

// required returns the total sector count a file of the given size claims:
// its data sectors plus one anchor per chained header.
func required(size int32) int64 {
	if size <= constant.DirectCapacity {
		return int64(divRoundUp(size, constant.SectorSize))
	}
	return constant.NumDirect + required(size-constant.DirectCapacity)
}

func divRoundUp(n, m int32) int32 {
	return (n + m - 1) / m
}
