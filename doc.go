/*
Package sectorfs implements a sector-addressed file store in pure Go. Files
are described by fixed-size disk-resident headers holding direct sector
slots, the last of which chains to a nested header when a file outgrows its
direct capacity. Free space is tracked by a one-sector bitmap.
*/
package sectorfs
