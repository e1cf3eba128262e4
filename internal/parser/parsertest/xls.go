package parsertest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"unicode/utf16"
)

// XLSSheet is one worksheet of a BuildXLS workbook. Empty values are omitted
// and a nil row gets no row record at all.
type XLSSheet struct {
	Name string
	Rows [][]string
}

const (
	sectorSize   = 512
	streamCutoff = 4096
	endOfChain   = 0xFFFFFFFE
	freeSect     = 0xFFFFFFFF
	fatSect      = 0xFFFFFFFD
)

// BuildXLS returns a BIFF8 workbook wrapped in a single-FAT compound document.
// Small non-negative integers are written as RK cells, other numbers as
// NUMBER cells and text through the shared string table.
func BuildXLS(sheets ...XLSSheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, errors.New("no sheets")
	}
	var shared []string
	index := map[string]int{}
	for _, s := range sheets {
		for _, row := range s.Rows {
			for _, v := range row {
				if v == "" || isNumber(v) {
					continue
				}
				if _, ok := index[v]; !ok {
					index[v] = len(shared)
					shared = append(shared, v)
				}
			}
		}
	}

	var globals bytes.Buffer
	writeRecord(&globals, 0x0809, bofBody(0x0005))
	var sst bytes.Buffer
	le(&sst, uint32(len(shared)), uint32(len(shared)))
	for _, s := range shared {
		units := utf16.Encode([]rune(s))
		le(&sst, uint16(len(units)), byte(0x01), units)
	}
	writeRecord(&globals, 0x00FC, sst.Bytes())
	posFields := make([]int, len(sheets))
	for i, s := range sheets {
		units := utf16.Encode([]rune(s.Name))
		if len(units) > 255 {
			return nil, errors.New("sheet name too long")
		}
		var bs bytes.Buffer
		le(&bs, uint32(0), byte(0), byte(0), byte(len(units)), byte(0x01), units)
		posFields[i] = globals.Len() + 4
		writeRecord(&globals, 0x0085, bs.Bytes())
	}
	writeRecord(&globals, 0x000A, nil)

	stream := globals.Bytes()
	for i, s := range sheets {
		binary.LittleEndian.PutUint32(stream[posFields[i]:], uint32(len(stream)))
		stream = append(stream, sheetStream(s, index)...)
	}
	size := streamCutoff
	for size < len(stream) {
		size += sectorSize
	}
	// One FAT sector maps 128 sectors: the FAT, the directory and the stream.
	if size/sectorSize > sectorSize/4-2 {
		return nil, errors.New("workbook too large for fixture")
	}
	stream = append(stream, make([]byte, size-len(stream))...)
	return compoundFile(stream), nil
}

func sheetStream(s XLSSheet, index map[string]int) []byte {
	var b bytes.Buffer
	writeRecord(&b, 0x0809, bofBody(0x0010))
	for r, row := range s.Rows {
		if row == nil {
			continue
		}
		var ri bytes.Buffer
		le(&ri, uint16(r), uint16(0), uint16(len(row)), uint16(0x00FF), uint16(0), uint16(0), uint32(0x0100))
		writeRecord(&b, 0x0208, ri.Bytes())
	}
	for r, row := range s.Rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			var cell bytes.Buffer
			le(&cell, uint16(r), uint16(c), uint16(0))
			if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < 1<<29 {
				le(&cell, uint32(n)<<2|0x02)
				writeRecord(&b, 0x027E, cell.Bytes())
				continue
			}
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				le(&cell, math.Float64bits(f))
				writeRecord(&b, 0x0203, cell.Bytes())
				continue
			}
			le(&cell, uint32(index[v]))
			writeRecord(&b, 0x00FD, cell.Bytes())
		}
	}
	writeRecord(&b, 0x000A, nil)
	return b.Bytes()
}

// compoundFile lays out header, FAT (sector 0), directory (sector 1) and the
// Workbook stream from sector 2 on.
func compoundFile(stream []byte) []byte {
	nStream := len(stream) / sectorSize

	header := make([]byte, sectorSize)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	binary.LittleEndian.PutUint16(header[0x18:], 0x003E)
	binary.LittleEndian.PutUint16(header[0x1A:], 0x0003)
	binary.LittleEndian.PutUint16(header[0x1C:], 0xFFFE)
	binary.LittleEndian.PutUint16(header[0x1E:], 9)
	binary.LittleEndian.PutUint16(header[0x20:], 6)
	binary.LittleEndian.PutUint32(header[0x2C:], 1)
	binary.LittleEndian.PutUint32(header[0x30:], 1)
	binary.LittleEndian.PutUint32(header[0x38:], streamCutoff)
	binary.LittleEndian.PutUint32(header[0x3C:], endOfChain)
	binary.LittleEndian.PutUint32(header[0x44:], endOfChain)
	binary.LittleEndian.PutUint32(header[0x4C:], 0)
	for off := 0x50; off < sectorSize; off += 4 {
		binary.LittleEndian.PutUint32(header[off:], freeSect)
	}

	fat := make([]byte, sectorSize)
	for i := 0; i < sectorSize/4; i++ {
		var v uint32 = freeSect
		switch {
		case i == 0:
			v = fatSect
		case i == 1:
			v = endOfChain
		case i >= 2 && i < 2+nStream-1:
			v = uint32(i + 1)
		case i == 2+nStream-1:
			v = endOfChain
		}
		binary.LittleEndian.PutUint32(fat[i*4:], v)
	}

	dir := make([]byte, sectorSize)
	copy(dir[0:], dirEntry("Root Entry", 5, 1, endOfChain, 0))
	copy(dir[128:], dirEntry("Workbook", 2, freeSect, 2, uint32(len(stream))))

	out := make([]byte, 0, 3*sectorSize+len(stream))
	out = append(out, header...)
	out = append(out, fat...)
	out = append(out, dir...)
	return append(out, stream...)
}

func dirEntry(name string, typ byte, child, start, size uint32) []byte {
	e := make([]byte, 128)
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		binary.LittleEndian.PutUint16(e[i*2:], u)
	}
	binary.LittleEndian.PutUint16(e[64:], uint16((len(units)+1)*2))
	e[66] = typ
	e[67] = 1
	binary.LittleEndian.PutUint32(e[68:], freeSect)
	binary.LittleEndian.PutUint32(e[72:], freeSect)
	binary.LittleEndian.PutUint32(e[76:], child)
	binary.LittleEndian.PutUint32(e[116:], start)
	binary.LittleEndian.PutUint32(e[120:], size)
	return e
}

func bofBody(kind uint16) []byte {
	var b bytes.Buffer
	le(&b, uint16(0x0600), kind, uint16(0x0DBB), uint16(0x07CC), uint32(0), uint32(0x06))
	return b.Bytes()
}

func writeRecord(b *bytes.Buffer, id uint16, body []byte) {
	le(b, id, uint16(len(body)))
	b.Write(body)
}

func le(b *bytes.Buffer, vals ...any) {
	for _, v := range vals {
		_ = binary.Write(b, binary.LittleEndian, v)
	}
}

func isNumber(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}
