package header

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/infinivision/sectorfs/bitmap"
	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/disk"
	"github.com/infinivision/sectorfs/errmsg"
	"github.com/nnsgmsone/damrey/logger"
)

func newTestDisk(t *testing.T) (disk.Disk, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "sectorfs")
	if err != nil {
		t.Fatal(err)
	}
	d, err := disk.New(filepath.Join(dir, "test.fs"))
	if err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return d, func() {
		d.Close()
		os.RemoveAll(dir)
	}
}

func testLog() logger.Log {
	return logger.New(ioutil.Discard, "test")
}

func snapshot(b bitmap.Bitmap) []bool {
	s := make([]bool, b.Bits())
	for i := range s {
		s[i] = b.Test(int64(i))
	}
	return s
}

func claimed(b bitmap.Bitmap) int64 {
	return b.Bits() - b.NumClear()
}

func TestAllocate(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	sizes := []int32{0, 1, constant.SectorSize, constant.SectorSize + 1,
		constant.DirectCapacity, constant.DirectCapacity + 1, constant.MaxFileSize}
	for _, size := range sizes {
		b := bitmap.New(constant.NumSectors)
		h := New(testLog())
		if err := h.Allocate(d, b, size); err != nil {
			t.Fatalf("allocate %v: %v", size, err)
		}
		if h.FileLength() != size {
			t.Fatalf("allocate %v: length %v", size, h.FileLength())
		}
		if want := divRoundUp(size, constant.SectorSize); h.sectors != want {
			t.Fatalf("allocate %v: %v sectors, want %v", size, h.sectors, want)
		}
		if got, want := claimed(b), required(size); got != want {
			t.Fatalf("allocate %v: claimed %v sectors, want %v", size, got, want)
		}
	}
}

func TestAllocateTooLarge(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	if err := h.Allocate(d, b, constant.MaxFileSize+1); err != errmsg.TooLarge {
		t.Fatalf("got %v, want %v", err, errmsg.TooLarge)
	}
	if err := h.Allocate(d, b, -1); err != errmsg.TooLarge {
		t.Fatalf("got %v, want %v", err, errmsg.TooLarge)
	}
	if claimed(b) != 0 {
		t.Fatalf("failed allocate claimed %v sectors", claimed(b))
	}
}

func TestAllocateOutOfSpace(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	// leave too few clear bits for a chained file: it needs 29+1+1 sectors
	for i := int64(0); i < constant.NumSectors-30; i++ {
		b.Mark(i)
	}
	before := snapshot(b)
	h := New(testLog())
	if err := h.Allocate(d, b, constant.DirectCapacity+1); err != errmsg.OutOfSpace {
		t.Fatalf("got %v, want %v", err, errmsg.OutOfSpace)
	}
	after := snapshot(b)
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("failed allocate moved bit %v", i)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	size := int32(constant.DirectCapacity + 100)
	if err := h.Allocate(d, b, size); err != nil {
		t.Fatal(err)
	}
	hn, err := b.Find()
	if err != nil {
		t.Fatal(err)
	}
	if err := h.WriteBack(d, hn); err != nil {
		t.Fatal(err)
	}
	g := New(testLog())
	if err := g.FetchFrom(d, hn); err != nil {
		t.Fatal(err)
	}
	if g.FileLength() != h.FileLength() || g.sectors != h.sectors {
		t.Fatalf("fetched %v bytes/%v sectors, want %v/%v",
			g.FileLength(), g.sectors, h.FileLength(), h.sectors)
	}
	if g.direct != h.direct {
		t.Fatalf("fetched slots %v, want %v", g.direct, h.direct)
	}
}

// wire format: length, sector count, then NumDirect slots, 4-byte
// little-endian each, filling one sector
func TestWireFormat(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	if err := h.Allocate(d, b, 3*constant.SectorSize); err != nil {
		t.Fatal(err)
	}
	if err := h.WriteBack(d, 100); err != nil {
		t.Fatal(err)
	}
	s, err := d.Read(100, make([]byte, constant.SectorSize))
	if err != nil {
		t.Fatal(err)
	}
	buf := s.Buffer()
	if got := int32(binary.LittleEndian.Uint32(buf)); got != 3*constant.SectorSize {
		t.Fatalf("length field %v", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[4:])); got != 3 {
		t.Fatalf("sector count field %v", got)
	}
	for i := 0; i < 3; i++ {
		if got := int32(binary.LittleEndian.Uint32(buf[8+4*i:])); got != h.direct[i] {
			t.Fatalf("slot %v holds %v, want %v", i, got, h.direct[i])
		}
	}
}

func TestDeallocateRestoresMap(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	for _, size := range []int32{300, constant.DirectCapacity, constant.MaxFileSize} {
		b := bitmap.New(constant.NumSectors)
		b.Mark(constant.FreeMapSector)
		before := snapshot(b)
		h := New(testLog())
		if err := h.Allocate(d, b, size); err != nil {
			t.Fatal(err)
		}
		if err := h.Deallocate(d, b); err != nil {
			t.Fatal(err)
		}
		after := snapshot(b)
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("size %v: bit %v differs after deallocate", size, i)
			}
		}
	}
}

func TestExtendDirect(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	if err := h.Allocate(d, b, 300); err != nil {
		t.Fatal(err)
	}
	old := h.direct
	if err := h.Extend(d, b, 500); err != nil {
		t.Fatal(err)
	}
	if h.FileLength() != 500 || h.sectors != 4 {
		t.Fatalf("extended to %v bytes/%v sectors", h.FileLength(), h.sectors)
	}
	if got, want := claimed(b), required(500); got != want {
		t.Fatalf("claimed %v, want %v", got, want)
	}
	for i := 0; i < 3; i++ {
		if h.direct[i] != old[i] {
			t.Fatalf("slot %v moved from %v to %v", i, old[i], h.direct[i])
		}
	}
}

func TestExtendAcrossThreshold(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	if err := h.Allocate(d, b, 300); err != nil {
		t.Fatal(err)
	}
	old := h.direct
	if err := h.Extend(d, b, constant.DirectCapacity+1); err != nil {
		t.Fatal(err)
	}
	if !h.chained() {
		t.Fatal("no chain after crossing the direct capacity")
	}
	if got, want := claimed(b), required(constant.DirectCapacity+1); got != want {
		t.Fatalf("claimed %v, want %v", got, want)
	}
	for i := 0; i < 3; i++ {
		if h.direct[i] != old[i] {
			t.Fatalf("slot %v moved from %v to %v", i, old[i], h.direct[i])
		}
	}
	// the nested header holds exactly the overflow byte
	c, err := h.fault(d)
	if err != nil {
		t.Fatal(err)
	}
	if c.FileLength() != 1 {
		t.Fatalf("nested header holds %v bytes, want 1", c.FileLength())
	}
}

func TestExtendChained(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	if err := h.Allocate(d, b, constant.DirectCapacity+1); err != nil {
		t.Fatal(err)
	}
	anchor := h.direct[constant.NumDirect-1]
	if err := h.Extend(d, b, constant.MaxFileSize); err != nil {
		t.Fatal(err)
	}
	if h.direct[constant.NumDirect-1] != anchor {
		t.Fatalf("anchor moved from %v to %v", anchor, h.direct[constant.NumDirect-1])
	}
	if h.FileLength() != constant.MaxFileSize {
		t.Fatalf("length %v", h.FileLength())
	}
	if got, want := claimed(b), required(constant.MaxFileSize); got != want {
		t.Fatalf("claimed %v, want %v", got, want)
	}
	// the on-disk nested header grew in place
	c := New(testLog())
	if err := c.FetchFrom(d, int64(anchor)); err != nil {
		t.Fatal(err)
	}
	if c.FileLength() != constant.MaxFileSize-constant.DirectCapacity {
		t.Fatalf("nested length %v", c.FileLength())
	}
}

func TestExtendLimits(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	if err := h.Allocate(d, b, constant.MaxFileSize); err != nil {
		t.Fatal(err)
	}
	if err := h.Extend(d, b, constant.MaxFileSize+constant.SectorSize); err != errmsg.TooLarge {
		t.Fatalf("got %v, want %v", err, errmsg.TooLarge)
	}
	// shrinking or restating the size is a no-op
	if err := h.Extend(d, b, 10); err != nil {
		t.Fatal(err)
	}
	if h.FileLength() != constant.MaxFileSize {
		t.Fatalf("no-op extend changed length to %v", h.FileLength())
	}
}

func TestByteToSector(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	b := bitmap.New(constant.NumSectors)
	h := New(testLog())
	// a fresh map hands out ascending sectors, so the expected ids are known
	size := int32(constant.DirectCapacity + 2*constant.SectorSize)
	if err := h.Allocate(d, b, size); err != nil {
		t.Fatal(err)
	}
	for off := int32(0); off < constant.DirectCapacity; off += constant.SectorSize {
		sn, err := h.ByteToSector(d, off)
		if err != nil {
			t.Fatal(err)
		}
		if want := int64(off / constant.SectorSize); sn != want {
			t.Fatalf("offset %v in sector %v, want %v", off, sn, want)
		}
	}
	// overflow sectors follow the direct ones in allocation order
	for i := int32(0); i < 2; i++ {
		off := constant.DirectCapacity + i*constant.SectorSize
		sn, err := h.ByteToSector(d, off)
		if err != nil {
			t.Fatal(err)
		}
		if want := int64(constant.NumDirect - 1 + i); sn != want {
			t.Fatalf("offset %v in sector %v, want %v", off, sn, want)
		}
	}
}

func TestChainingBoundary(t *testing.T) {
	d, done := newTestDisk(t)
	defer done()
	{
		b := bitmap.New(constant.NumSectors)
		h := New(testLog())
		if err := h.Allocate(d, b, constant.DirectCapacity); err != nil {
			t.Fatal(err)
		}
		if h.chained() {
			t.Fatal("chained at exactly the direct capacity")
		}
		if got := claimed(b); got != constant.NumDirect-1 {
			t.Fatalf("claimed %v, want %v", got, constant.NumDirect-1)
		}
	}
	{
		b := bitmap.New(constant.NumSectors)
		h := New(testLog())
		if err := h.Allocate(d, b, constant.DirectCapacity+1); err != nil {
			t.Fatal(err)
		}
		if !h.chained() {
			t.Fatal("not chained one byte past the direct capacity")
		}
		// 29 direct data + 1 overflow data + 1 anchor
		if got := claimed(b); got != constant.NumDirect+1 {
			t.Fatalf("claimed %v, want %v", got, constant.NumDirect+1)
		}
	}
}
