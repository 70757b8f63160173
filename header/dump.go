package header

import (
	"fmt"
	"io"

	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/disk"
)

// Dump renders the sector list and the raw contents of every data sector,
// following the chain. It reads the disk but never touches the header or
// the free-space map; chained headers are refetched into throwaway copies.
func (h *header) Dump(w io.Writer, d disk.Disk) error {
	n := h.sectors
	if h.chained() {
		n = constant.NumDirect - 1
	}
	fmt.Fprintf(w, "header: %v bytes, sectors:", h.bytes)
	for i := int32(0); i < n; i++ {
		fmt.Fprintf(w, " %v", h.direct[i])
	}
	fmt.Fprintf(w, "\ncontents:\n")
	k := int32(0)
	for i := int32(0); i < n; i++ {
		s, err := d.Read(int64(h.direct[i]), make([]byte, constant.SectorSize))
		if err != nil {
			return err
		}
		buf := s.Buffer()
		for j := 0; j < constant.SectorSize && k < h.bytes; j, k = j+1, k+1 {
			if buf[j] >= 0x20 && buf[j] <= 0x7e {
				fmt.Fprintf(w, "%c", buf[j])
			} else {
				fmt.Fprintf(w, "\\%x", buf[j])
			}
		}
		fmt.Fprintf(w, "\n")
	}
	if !h.chained() {
		return nil
	}
	c := New(h.log)
	if err := c.FetchFrom(d, int64(h.direct[constant.NumDirect-1])); err != nil {
		return err
	}
	return c.Dump(w, d)
}
