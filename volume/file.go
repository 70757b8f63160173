package volume

import (
	"io"

	"github.com/infinivision/sectorfs/cache"
	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/errmsg"
)

func (f *file) Length() int32 {
	return f.h.FileLength()
}

func (f *file) Sector() int64 {
	return f.hn
}

func (f *file) Sync() error {
	f.v.Lock()
	defer f.v.Unlock()
	return f.h.WriteBack(f.v.d, f.hn)
}

func (f *file) Dump(w io.Writer) error {
	return f.h.Dump(w, f.v.d)
}

func (f *file) ReadAt(p []byte, off int32) (int, error) {
	if off < 0 {
		return 0, errmsg.NotExist
	}
	if off >= f.h.FileLength() {
		return 0, io.EOF
	}
	n := int32(len(p))
	if off+n > f.h.FileLength() {
		n = f.h.FileLength() - off
	}
	for m := int32(0); m < n; {
		cnt, err := f.read(p[m:n], off+m)
		if err != nil {
			return int(m), err
		}
		m += cnt
	}
	return int(n), nil
}

// WriteAt grows the file when the write reaches past the current length;
// the resized header and the free-space map are persisted before any data
// lands.
func (f *file) WriteAt(p []byte, off int32) (int, error) {
	if off < 0 {
		return 0, errmsg.NotExist
	}
	if end := off + int32(len(p)); end > f.h.FileLength() {
		if err := f.grow(end); err != nil {
			return 0, err
		}
	}
	for m := int32(0); m < int32(len(p)); {
		cnt, err := f.write(p[m:], off+m)
		if err != nil {
			return int(m), err
		}
		m += cnt
	}
	return len(p), nil
}

func (f *file) read(p []byte, off int32) (int32, error) {
	fr, o, cnt, err := f.frame(off, int32(len(p)))
	if err != nil {
		return 0, err
	}
	copy(p[:cnt], fr.Buffer()[o:o+cnt])
	f.v.c.Release(fr)
	return cnt, nil
}

func (f *file) write(p []byte, off int32) (int32, error) {
	fr, o, cnt, err := f.frame(off, int32(len(p)))
	if err != nil {
		return 0, err
	}
	copy(fr.Buffer()[o:o+cnt], p[:cnt])
	err = fr.Sync()
	f.v.c.Release(fr)
	if err != nil {
		return 0, err
	}
	return cnt, nil
}

// frame pins the cached sector under off and returns it with the in-sector
// offset and the byte count usable before the sector boundary.
func (f *file) frame(off int32, want int32) (cache.Frame, int32, int32, error) {
	sn, err := f.h.ByteToSector(f.v.d, off)
	if err != nil {
		return nil, 0, 0, err
	}
	fr, err := f.v.c.Get(sn)
	if err != nil {
		return nil, 0, 0, err
	}
	o := off % constant.SectorSize
	cnt := constant.SectorSize - o
	if cnt > want {
		cnt = want
	}
	return fr, o, cnt, nil
}

func (f *file) grow(size int32) error {
	f.v.Lock()
	defer f.v.Unlock()
	if err := f.h.Extend(f.v.d, f.v.b, size); err != nil {
		return err
	}
	if err := f.h.WriteBack(f.v.d, f.hn); err != nil {
		return err
	}
	return f.v.b.WriteBack(f.v.d, constant.FreeMapSector)
}
