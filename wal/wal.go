// Package wal implements the write-ahead log used for crash recovery:
// a sequence of checksummed page-image frames appended to a sidecar
// "<db>-wal" file, replayed on open and folded back into the database
// file at checkpoint.
package wal

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"minidb/pager"
)

// ErrNotOpen is returned by any operation performed on a closed WAL.
var ErrNotOpen = errors.New("wal: not open")

// WAL owns the sidecar log file and the rolling frame count since the
// last checkpoint.
type WAL struct {
	file       *os.File
	header     Header
	frameCount uint32
	open       bool
	logger     *zap.Logger
}

// Open opens (or creates) "<dbPath>-wal". A missing or malformed
// header causes a fresh one to be written with new salts: salt1 is
// the current Unix time in seconds, salt2 the process id.
func Open(dbPath string, logger *zap.Logger) (*WAL, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(dbPath+"-wal", os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "wal: open %q", dbPath+"-wal")
	}

	w := &WAL{file: f, open: true, logger: logger}

	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		f.Close()
		return nil, errors.Wrap(err, "wal: read header")
	}
	if n < HeaderSize || decodeHeader(buf).Magic != magic {
		w.header = Header{
			Magic:    magic,
			Version:  formatVersion,
			PageSize: pager.PageSize,
			Salt1:    uint32(time.Now().Unix()),
			Salt2:    uint32(os.Getpid()),
		}
		if err := w.writeHeader(); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		w.header = decodeHeader(buf)
	}
	return w, nil
}

func (w *WAL) writeHeader() error {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "wal: seek header")
	}
	if _, err := w.file.Write(w.header.encode()); err != nil {
		return errors.Wrap(err, "wal: write header")
	}
	return nil
}

// Close flushes nothing (the caller is expected to checkpoint first)
// and releases the file descriptor.
func (w *WAL) Close() error {
	if !w.open {
		return nil
	}
	w.open = false
	return w.file.Close()
}

// FrameCount reports frames appended since the last checkpoint.
func (w *WAL) FrameCount() uint32 { return w.frameCount }

// WriteFrame appends one checksummed page image to the log and
// fsyncs, so a crash immediately after this call leaves a durable,
// replayable record.
func (w *WAL) WriteFrame(pageNum uint32, page *[pager.PageSize]byte, dbSizeAfter uint32) error {
	if !w.open {
		return ErrNotOpen
	}
	f := Frame{
		PageNumber: pageNum,
		DBSize:     dbSizeAfter,
		Salt1:      w.header.Salt1,
		Salt2:      w.header.Salt2,
		Page:       *page,
	}
	f.Checksum1 = checksum(bytesToWords(f.Page[:]), f.Salt1, f.Salt2)
	// Checksum2 covers the 4-word prefix of the frame header (page
	// number, db size, salt1, salt2), seeded by (checksum1, 0).
	prefix := f.encodeHeader()[:16]
	f.Checksum2 = checksum(bytesToWords(prefix), f.Checksum1, 0)

	if _, err := w.file.Seek(0, io.SeekEnd); err != nil {
		return errors.Wrap(err, "wal: seek end")
	}
	if _, err := w.file.Write(f.encodeHeader()); err != nil {
		return errors.Wrap(err, "wal: write frame header")
	}
	if _, err := w.file.Write(f.Page[:]); err != nil {
		return errors.Wrap(err, "wal: write frame page")
	}
	w.frameCount++
	if err := w.file.Sync(); err != nil {
		return errors.Wrap(err, "wal: fsync")
	}
	return nil
}

// Recover replays frames in order, applying each verified frame to the
// pager. Replay stops at the first checksum mismatch, tolerating a
// torn write from a crash mid-append, then checkpoints.
func (w *WAL) Recover(p *pager.Pager) (int, error) {
	if !w.open {
		return 0, ErrNotOpen
	}
	w.logger.Info("wal: recovering")
	if _, err := w.file.Seek(HeaderSize, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "wal: seek past header")
	}

	recovered := 0
	for {
		hbuf := make([]byte, FrameHeaderSize)
		n, err := io.ReadFull(w.file, hbuf)
		if err != nil || n < FrameHeaderSize {
			break
		}
		fh := decodeFrameHeader(hbuf)

		var page [pager.PageSize]byte
		if _, err := io.ReadFull(w.file, page[:]); err != nil {
			break
		}

		want := checksum(bytesToWords(page[:]), fh.Salt1, fh.Salt2)
		if want != fh.Checksum1 {
			w.logger.Warn("wal: checksum mismatch, stopping recovery",
				zap.Int("frames_recovered", recovered))
			break
		}

		pg, err := p.GetPage(fh.PageNumber)
		if err != nil {
			return recovered, errors.Wrapf(err, "wal: apply frame to page %d", fh.PageNumber)
		}
		pg.Data = page
		pg.Dirty = true
		recovered++
	}

	w.logger.Info("wal: recovery complete", zap.Int("frames_recovered", recovered))
	if err := w.Checkpoint(p); err != nil {
		return recovered, err
	}
	return recovered, nil
}

// Checkpoint flushes every present pager page to the database file,
// truncates the log back to just its header, bumps the checkpoint
// sequence, and fsyncs.
func (w *WAL) Checkpoint(p *pager.Pager) error {
	if !w.open {
		return ErrNotOpen
	}
	w.logger.Info("wal: checkpoint", zap.Uint32("frames", w.frameCount))

	if err := p.FlushAll(); err != nil {
		return errors.Wrap(err, "wal: checkpoint flush")
	}
	if err := w.file.Truncate(HeaderSize); err != nil {
		return errors.Wrap(err, "wal: truncate")
	}
	w.frameCount = 0
	w.header.CheckpointSeq++
	if err := w.writeHeader(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return errors.Wrap(err, "wal: fsync after checkpoint")
	}
	return nil
}

// BeginTransaction is a diagnostic marker; this single-user engine has
// no undo log, so there is nothing to stage.
func (w *WAL) BeginTransaction() {
	w.logger.Debug("wal: begin transaction")
}

// CommitTransaction fsyncs the log, making everything written so far
// durable.
func (w *WAL) CommitTransaction() error {
	w.logger.Debug("wal: commit transaction")
	if !w.open {
		return ErrNotOpen
	}
	return w.file.Sync()
}

// RollbackTransaction is a diagnostic marker only: without an undo log
// there is nothing to unwind in this engine.
func (w *WAL) RollbackTransaction() {
	w.logger.Debug("wal: rollback transaction")
}
