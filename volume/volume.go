package volume

import (
	"os"

	"github.com/infinivision/sectorfs/bitmap"
	"github.com/infinivision/sectorfs/cache"
	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/disk"
	"github.com/infinivision/sectorfs/errmsg"
	"github.com/infinivision/sectorfs/header"
	"github.com/nnsgmsone/damrey/logger"
)

func DefaultConfig() Config {
	return Config{
		CacheSize: 256,
		Path:      "sector.fs",
		LogWriter: os.Stderr,
	}
}

func Open(cfg Config) (*volume, error) {
	log := logger.New(cfg.LogWriter, "sectorfs")
	d, err := newDisk(cfg)
	if err != nil {
		return nil, err
	}
	b := bitmap.New(constant.NumSectors)
	if err := b.FetchFrom(d, constant.FreeMapSector); err != nil {
		d.Close()
		return nil, err
	}
	// a fresh device has an all-clear map; the map claims its own sector
	if !b.Test(constant.FreeMapSector) {
		b.Mark(constant.FreeMapSector)
		if err := b.WriteBack(d, constant.FreeMapSector); err != nil {
			d.Close()
			return nil, err
		}
	}
	c := cache.New(cfg.CacheSize, d, log)
	go c.Run()
	return &volume{d: d, b: b, c: c, log: log}, nil
}

func (v *volume) Close() error {
	v.Lock()
	defer v.Unlock()
	v.c.Stop()
	if err := v.b.WriteBack(v.d, constant.FreeMapSector); err != nil {
		v.log.Errorf("close: free map writeback failed: %v\n", err)
	}
	if err := v.d.Flush(); err != nil {
		v.d.Close()
		return err
	}
	return v.d.Close()
}

func (v *volume) Flush() error {
	v.Lock()
	defer v.Unlock()
	if err := v.b.WriteBack(v.d, constant.FreeMapSector); err != nil {
		return err
	}
	return v.d.Flush()
}

// Create reserves a home sector, allocates a header of the given size and
// persists both the header and the free-space map. The home sector number
// is the file's identity.
func (v *volume) Create(size int32) (int64, error) {
	v.Lock()
	defer v.Unlock()
	hn, err := v.b.Find()
	if err != nil {
		return -1, err
	}
	h := header.New(v.log)
	if err := h.Allocate(v.d, v.b, size); err != nil {
		v.b.Clear(hn)
		return -1, err
	}
	if err := h.WriteBack(v.d, hn); err != nil {
		return -1, err
	}
	if err := v.b.WriteBack(v.d, constant.FreeMapSector); err != nil {
		return -1, err
	}
	return hn, nil
}

func (v *volume) Open(hn int64) (File, error) {
	v.Lock()
	defer v.Unlock()
	if hn <= constant.FreeMapSector || !v.b.Test(hn) {
		return nil, errmsg.NotExist
	}
	h := header.New(v.log)
	if err := h.FetchFrom(v.d, hn); err != nil {
		return nil, err
	}
	return &file{v: v, h: h, hn: hn}, nil
}

func (v *volume) Remove(hn int64) error {
	v.Lock()
	defer v.Unlock()
	if hn <= constant.FreeMapSector || !v.b.Test(hn) {
		return errmsg.NotExist
	}
	h := header.New(v.log)
	if err := h.FetchFrom(v.d, hn); err != nil {
		return err
	}
	if err := h.Deallocate(v.d, v.b); err != nil {
		return err
	}
	v.b.Clear(hn)
	return v.b.WriteBack(v.d, constant.FreeMapSector)
}

func newDisk(cfg Config) (disk.Disk, error) {
	if cfg.Mmap {
		return disk.NewMmap(cfg.Path)
	}
	return disk.New(cfg.Path)
}
