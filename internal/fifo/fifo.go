// Package fifo provides a circular byte buffer used by the ISO-TP
// reassembler to collect a multi-frame payload as consecutive frames
// arrive.
package fifo

import "github.com/Dsmasal14/FcaDiag/internal/crc"

type Fifo struct {
	buffer   []byte
	writePos int
	readPos  int
}

func NewFifo(size int) *Fifo {
	return &Fifo{buffer: make([]byte, size)}
}

func (f *Fifo) Reset() {
	f.readPos = 0
	f.writePos = 0
}

func (f *Fifo) GetSpace() int {
	sizeLeft := f.readPos - f.writePos - 1
	if sizeLeft < 0 {
		sizeLeft += len(f.buffer)
	}
	return sizeLeft
}

func (f *Fifo) GetOccupied() int {
	sizeOccupied := f.writePos - f.readPos
	if sizeOccupied < 0 {
		sizeOccupied += len(f.buffer)
	}
	return sizeOccupied
}

// Write appends buffer to the fifo, stopping early if it runs out of
// space, and returns the number of bytes actually written. When crc is
// non-nil every written byte is folded into it.
func (f *Fifo) Write(buffer []byte, crc *crc.CRC16) int {
	writeCounter := 0
	for _, element := range buffer {
		writePosNext := f.writePos + 1
		if writePosNext == f.readPos || (writePosNext == len(f.buffer) && f.readPos == 0) {
			break
		}
		f.buffer[f.writePos] = element
		writeCounter++
		if crc != nil {
			crc.Single(element)
		}
		if writePosNext == len(f.buffer) {
			f.writePos = 0
		} else {
			f.writePos++
		}
	}
	return writeCounter
}

// Read drains up to len(buffer) bytes from the fifo and returns the
// number of bytes actually read.
func (f *Fifo) Read(buffer []byte) int {
	readCounter := 0
	for index := range buffer {
		if f.readPos == f.writePos {
			break
		}
		buffer[index] = f.buffer[f.readPos]
		readCounter++
		f.readPos++
		if f.readPos == len(f.buffer) {
			f.readPos = 0
		}
	}
	return readCounter
}
