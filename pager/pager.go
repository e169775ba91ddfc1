// Package pager maps a database file into a fixed number of in-memory
// page slots, loading pages lazily and flushing every present one back
// to disk, whether or not it is marked dirty.
// There is no eviction: the store is capped at TableMaxPages pages.
package pager

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// PageSize is the fixed unit of file and buffer I/O.
	PageSize = 4096
	// TableMaxPages caps the pager's slot array. The store tops out at
	// TableMaxPages * PageSize (400 KiB) since pages are never evicted.
	TableMaxPages = 100
)

// ErrCorruptFile is returned by Open when the file length is not an
// integral multiple of PageSize.
var ErrCorruptFile = errors.New("database file is corrupted: not a whole number of pages")

// ErrPageOutOfBounds is returned by GetPage/AllocatePage when a page
// number would be TableMaxPages or more.
var ErrPageOutOfBounds = errors.New("page number out of bounds")

// Page is the fixed 4096-byte unit of storage. It is either a B+tree
// leaf or internal node; the pager itself does not interpret the bytes.
type Page struct {
	Data    [PageSize]byte
	Dirty   bool
	PageNum uint32
}

// Pager owns the database file descriptor and the in-memory page cache.
type Pager struct {
	file     *os.File
	path     string
	Pages    []*Page
	NumPages int
	logger   *zap.Logger
}

// Open opens (or creates) the database file at path and derives the
// current page count from its length. It does not preload any page
// contents; pages are read lazily via GetPage.
func Open(path string, logger *zap.Logger) (*Pager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		logger.Error("pager: open failed", zap.String("path", path), zap.Error(err))
		return nil, errors.Wrapf(err, "pager: open %q", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "pager: stat %q", path)
	}
	fileSize := fi.Size()
	if fileSize%PageSize != 0 {
		f.Close()
		logger.Error("pager: corrupt file length", zap.String("path", path), zap.Int64("size", fileSize))
		return nil, errors.Wrapf(ErrCorruptFile, "pager: %q (size %d)", path, fileSize)
	}
	numPages := int(fileSize / PageSize)

	return &Pager{
		file:     f,
		path:     path,
		Pages:    make([]*Page, numPages),
		NumPages: numPages,
		logger:   logger,
	}, nil
}

// FileSize returns the current on-disk length of the database file.
func (p *Pager) FileSize() (int64, error) {
	fi, err := p.file.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// GetPage returns the page at pageNum, loading it from disk on first
// access. Page numbers of TableMaxPages or more are fatal per the
// pager's resource model.
func (p *Pager) GetPage(pageNum uint32) (*Page, error) {
	if pageNum >= TableMaxPages {
		return nil, errors.Wrapf(ErrPageOutOfBounds, "GetPage(%d) max %d", pageNum, TableMaxPages)
	}
	if int(pageNum) >= len(p.Pages) {
		grown := make([]*Page, pageNum+1)
		copy(grown, p.Pages)
		p.Pages = grown
	}
	if p.Pages[pageNum] == nil {
		pg, err := p.loadPageFromDisk(pageNum)
		if err != nil {
			return nil, err
		}
		p.Pages[pageNum] = pg
	}
	if int(pageNum) >= p.NumPages {
		p.NumPages = int(pageNum) + 1
	}
	return p.Pages[pageNum], nil
}

func (p *Pager) loadPageFromDisk(pageNum uint32) (*Page, error) {
	pg := &Page{PageNum: pageNum}
	off := int64(pageNum) * PageSize
	if off >= mustFileSize(p) {
		// Beyond EOF: a fresh, zeroed page.
		return pg, nil
	}
	if _, err := p.file.Seek(off, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "pager: seek page %d", pageNum)
	}
	if _, err := io.ReadFull(p.file, pg.Data[:]); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		p.logger.Error("pager: read failed", zap.Uint32("page_num", pageNum), zap.Error(err))
		return nil, errors.Wrapf(err, "pager: read page %d", pageNum)
	}
	return pg, nil
}

func mustFileSize(p *Pager) int64 {
	fi, err := p.file.Stat()
	if err != nil {
		return 0
	}
	return fi.Size()
}

// AllocatePage hands out the next free page number and marks it dirty.
func (p *Pager) AllocatePage() (uint32, error) {
	np := uint32(len(p.Pages))
	if np >= TableMaxPages {
		return 0, errors.Wrapf(ErrPageOutOfBounds, "AllocatePage at %d", np)
	}
	pg := &Page{PageNum: np, Dirty: true}
	p.Pages = append(p.Pages, pg)
	if int(np)+1 > p.NumPages {
		p.NumPages = int(np) + 1
	}
	return np, nil
}

// FlushPage writes the in-memory image of pageNum to its file offset
// unconditionally, regardless of its dirty flag.
func (p *Pager) FlushPage(pageNum uint32) error {
	if int(pageNum) >= len(p.Pages) || p.Pages[pageNum] == nil {
		return fmt.Errorf("pager: FlushPage(%d): no such page", pageNum)
	}
	pg := p.Pages[pageNum]
	off := int64(pageNum) * PageSize
	if _, err := p.file.Seek(off, io.SeekStart); err != nil {
		return errors.Wrapf(err, "pager: seek page %d", pageNum)
	}
	if _, err := p.file.Write(pg.Data[:]); err != nil {
		p.logger.Error("pager: write failed", zap.Uint32("page_num", pageNum), zap.Error(err))
		return errors.Wrapf(err, "pager: write page %d", pageNum)
	}
	pg.Dirty = false
	return nil
}

// FlushAll writes every present page to disk and fsyncs the file.
func (p *Pager) FlushAll() error {
	for i, pg := range p.Pages {
		if pg == nil {
			continue
		}
		if err := p.FlushPage(uint32(i)); err != nil {
			return err
		}
	}
	return p.file.Sync()
}

// Close flushes every present page and closes the underlying file.
func (p *Pager) Close() error {
	if err := p.FlushAll(); err != nil {
		return err
	}
	return p.file.Close()
}

// File exposes the underlying os.File of the database file. The WAL
// does not use it; it opens its own "<path>-wal" sidecar by path.
func (p *Pager) File() *os.File { return p.file }

// Path returns the database file path the pager was opened with.
func (p *Pager) Path() string { return p.path }
