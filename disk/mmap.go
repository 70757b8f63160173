package disk

import (
	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/errmsg"
	"golang.org/x/sys/unix"
)

func NewMmap(path string) (*mdisk, error) {
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR, 0664)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)
	size := constant.NumSectors * constant.SectorSize
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, err
	}
	buf, err := unix.Mmap(fd, 0, size, unix.PROT_WRITE|unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mdisk{cnt: constant.NumSectors, buf: buf}, nil
}

func (d *mdisk) Close() error {
	return unix.Munmap(d.buf)
}

func (d *mdisk) Flush() error {
	return unix.Msync(d.buf, unix.MS_SYNC)
}

func (d *mdisk) Sectors() int64 {
	return d.cnt
}

func (d *mdisk) Read(sn int64, buf []byte) (Sector, error) {
	if sn < 0 || sn >= d.cnt {
		return nil, errmsg.NotExist
	}
	o := sn * constant.SectorSize
	copy(buf[:constant.SectorSize], d.buf[o:o+constant.SectorSize])
	return &sector{sn, buf}, nil
}

func (d *mdisk) Write(s Sector) error {
	sn := s.SectorNumber()
	if sn < 0 || sn >= d.cnt {
		return errmsg.NotExist
	}
	o := sn * constant.SectorSize
	copy(d.buf[o:o+constant.SectorSize], s.Buffer()[:constant.SectorSize])
	return nil
}
