package disk

import (
	"os"

	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/errmsg"
)

func New(path string) (*disk, error) {
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0664)
	if err != nil {
		return nil, err
	}
	st, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, err
	}
	d := &disk{fp: fp, cnt: constant.NumSectors}
	if st.Size() < d.cnt*constant.SectorSize {
		if err := fp.Truncate(d.cnt * constant.SectorSize); err != nil {
			fp.Close()
			return nil, err
		}
	}
	return d, nil
}

func (d *disk) Close() error {
	return d.fp.Close()
}

func (d *disk) Flush() error {
	return d.fp.Sync()
}

func (d *disk) Sectors() int64 {
	return d.cnt
}

func (d *disk) Read(sn int64, buf []byte) (Sector, error) {
	if sn < 0 || sn >= d.cnt {
		return nil, errmsg.NotExist
	}
	n, err := d.fp.ReadAt(buf[:constant.SectorSize], sn*constant.SectorSize)
	switch {
	case err != nil:
		return nil, err
	case n != constant.SectorSize:
		return nil, errmsg.ReadFailed
	}
	return &sector{sn, buf}, nil
}

func (d *disk) Write(s Sector) error {
	sn := s.SectorNumber()
	if sn < 0 || sn >= d.cnt {
		return errmsg.NotExist
	}
	n, err := d.fp.WriteAt(s.Buffer()[:constant.SectorSize], sn*constant.SectorSize)
	switch {
	case err != nil:
		return err
	case n != constant.SectorSize:
		return errmsg.WriteFailed
	}
	return nil
}
