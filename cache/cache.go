package cache

import (
	"container/list"
	"time"

	"github.com/infinivision/sectorfs/constant"
	"github.com/infinivision/sectorfs/disk"
	"github.com/nnsgmsone/damrey/logger"
)

func New(limit int, d disk.Disk, log logger.Log) *cache {
	if limit < constant.MinCacheSize {
		limit = constant.MinCacheSize
	}
	return &cache{
		n:   limit,
		d:   d,
		log: log,
		mp:  make(map[int64]*frame),
		lq:  new(list.List),
		ch:  make(chan struct{}),
	}
}

func (c *cache) Run() {
	ticker := time.NewTicker(constant.GCCycle * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.ch:
			c.ch <- struct{}{}
			return
		case <-ticker.C:
			c.gc()
		}
	}
}

func (c *cache) Stop() {
	c.ch <- struct{}{}
	<-c.ch
}

func (c *cache) Get(sn int64) (Frame, error) {
	c.Lock()
	if f, ok := c.mp[sn]; ok {
		f.n++
		c.lq.MoveToFront(f.e)
		c.Unlock()
		return f, nil
	}
	c.Unlock()
	s, err := c.d.Read(sn, make([]byte, constant.SectorSize))
	if err != nil {
		return nil, err
	}
	c.Lock()
	defer c.Unlock()
	if f, ok := c.mp[sn]; ok { // lost the race with another reader
		f.n++
		c.lq.MoveToFront(f.e)
		return f, nil
	}
	f := &frame{n: 1, cp: c, s: s}
	f.e = c.lq.PushFront(f)
	c.mp[sn] = f
	if c.lq.Len() > c.n {
		c.evict()
	}
	return f, nil
}

func (c *cache) Release(f Frame) {
	c.Lock()
	f.(*frame).n--
	c.Unlock()
}

// evict drops unreferenced frames from the cold end until within limit.
// Referenced frames are skipped; the cache may run over limit while every
// frame is pinned.
func (c *cache) evict() {
	prev := c.lq.Back()
	for e := prev; e != nil && c.lq.Len() > c.n; e = prev {
		prev = e.Prev()
		f := e.Value.(*frame)
		if f.n > 0 {
			continue
		}
		c.lq.Remove(e)
		delete(c.mp, f.s.SectorNumber())
	}
}

func (c *cache) gc() {
	c.Lock()
	c.evict()
	c.Unlock()
}
