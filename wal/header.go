package wal

import (
	"encoding/binary"

	"minidb/pager"
)

const (
	magic         uint32 = 0x377F0682
	formatVersion uint32 = 1

	// HeaderSize is the fixed on-disk size of the WAL header.
	HeaderSize = 32
	// FrameHeaderSize is the fixed on-disk size of each frame header.
	FrameHeaderSize = 24
)

// Header is the WAL file's leading 32-byte record: format identity,
// the page size it was written under, the checkpoint sequence, the
// per-open salts used to seed frame checksums, and a header checksum
// pair. Nothing computes or verifies the header checksums; they are
// written as zero.
type Header struct {
	Magic         uint32
	Version       uint32
	PageSize      uint32
	CheckpointSeq uint32
	Salt1         uint32
	Salt2         uint32
	Checksum1     uint32
	Checksum2     uint32
}

func (h *Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.PageSize)
	binary.LittleEndian.PutUint32(buf[12:16], h.CheckpointSeq)
	binary.LittleEndian.PutUint32(buf[16:20], h.Salt1)
	binary.LittleEndian.PutUint32(buf[20:24], h.Salt2)
	binary.LittleEndian.PutUint32(buf[24:28], h.Checksum1)
	binary.LittleEndian.PutUint32(buf[28:32], h.Checksum2)
	return buf
}

func decodeHeader(buf []byte) Header {
	return Header{
		Magic:         binary.LittleEndian.Uint32(buf[0:4]),
		Version:       binary.LittleEndian.Uint32(buf[4:8]),
		PageSize:      binary.LittleEndian.Uint32(buf[8:12]),
		CheckpointSeq: binary.LittleEndian.Uint32(buf[12:16]),
		Salt1:         binary.LittleEndian.Uint32(buf[16:20]),
		Salt2:         binary.LittleEndian.Uint32(buf[20:24]),
		Checksum1:     binary.LittleEndian.Uint32(buf[24:28]),
		Checksum2:     binary.LittleEndian.Uint32(buf[28:32]),
	}
}

// Frame is one logged page image: the page it modifies, the database
// size (in pages) after the frame is applied, the salts copied from
// the header at write time, and the frame's own checksum pair.
type Frame struct {
	PageNumber uint32
	DBSize     uint32
	Salt1      uint32
	Salt2      uint32
	Checksum1  uint32
	Checksum2  uint32
	Page       [pager.PageSize]byte
}

func (f *Frame) encodeHeader() []byte {
	buf := make([]byte, FrameHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], f.PageNumber)
	binary.LittleEndian.PutUint32(buf[4:8], f.DBSize)
	binary.LittleEndian.PutUint32(buf[8:12], f.Salt1)
	binary.LittleEndian.PutUint32(buf[12:16], f.Salt2)
	binary.LittleEndian.PutUint32(buf[16:20], f.Checksum1)
	binary.LittleEndian.PutUint32(buf[20:24], f.Checksum2)
	return buf
}

func decodeFrameHeader(buf []byte) Frame {
	return Frame{
		PageNumber: binary.LittleEndian.Uint32(buf[0:4]),
		DBSize:     binary.LittleEndian.Uint32(buf[4:8]),
		Salt1:      binary.LittleEndian.Uint32(buf[8:12]),
		Salt2:      binary.LittleEndian.Uint32(buf[12:16]),
		Checksum1:  binary.LittleEndian.Uint32(buf[16:20]),
		Checksum2:  binary.LittleEndian.Uint32(buf[20:24]),
	}
}
