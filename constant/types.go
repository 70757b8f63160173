package constant

const (
	SectorSize = 128
	NumSectors = 1024 // bitmap of NumSectors bits fills exactly one sector
)

const (
	IntSize   = 4
	NumDirect = (SectorSize - 2*IntSize) / IntSize
)

const (
	// the last direct slot is the chain slot
	DirectCapacity = (NumDirect - 1) * SectorSize
	MaxFileSectors = 2 * (NumDirect - 1)
	MaxFileSize    = MaxFileSectors * SectorSize
)

const (
	FreeMapSector = int64(0)
)

const (
	MinCacheSize = 32
	GCCycle      = 30 // seconds
)
