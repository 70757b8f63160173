package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/infinivision/sectorfs/volume"
)

func main() {
	cfg := volume.DefaultConfig()
	cfg.Path = "test.fs"
	v, err := volume.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer v.Close()

	hn, err := v.Create(300)
	if err != nil {
		log.Fatal(err)
	}
	f, err := v.Open(hn)
	if err != nil {
		log.Fatal(err)
	}
	{
		data := make([]byte, 300)
		for i := range data {
			data[i] = byte('a' + i%26)
		}
		if _, err := f.WriteAt(data, 0); err != nil {
			log.Fatal(err)
		}
		buf := make([]byte, 300)
		if _, err := f.ReadAt(buf, 0); err != nil {
			log.Fatal(err)
		}
		if !bytes.Equal(buf, data) {
			log.Fatal(fmt.Errorf("read back mismatch"))
		}
	}
	{ // grow across the direct capacity threshold
		tail := []byte("tail of a chained file")
		if _, err := f.WriteAt(tail, 5000); err != nil {
			log.Fatal(err)
		}
		buf := make([]byte, len(tail))
		if _, err := f.ReadAt(buf, 5000); err != nil {
			log.Fatal(err)
		}
		if !bytes.Equal(buf, tail) {
			log.Fatal(fmt.Errorf("chained read back mismatch"))
		}
		fmt.Printf("file %v: %v bytes\n", f.Sector(), f.Length())
	}
	if err := f.Dump(os.Stdout); err != nil {
		log.Fatal(err)
	}
	if err := v.Remove(hn); err != nil {
		log.Fatal(err)
	}
	if err := v.Flush(); err != nil {
		log.Fatal(err)
	}
}
