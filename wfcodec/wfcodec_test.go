package wfcodec

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodeS2BigEndian(t *testing.T) {
	data := []byte{0x00, 0x01, 0xFF, 0xFF} // +1, -1
	got, err := Decode(data, "s2", 2, Int32)
	if err != nil {
		t.Fatal(err)
	}
	ints := got.([]int32)
	if ints[0] != 1 || ints[1] != -1 {
		t.Fatalf("got %v, want [1 -1]", ints)
	}
}

func TestDecodeI2LittleEndian(t *testing.T) {
	data := []byte{0x01, 0x00} // +1 in little-endian
	got, err := Decode(data, "i2", 1, Int32)
	if err != nil {
		t.Fatal(err)
	}
	if got.([]int32)[0] != 1 {
		t.Fatalf("got %v, want 1", got)
	}
}

func TestDecodeS3SignExtension(t *testing.T) {
	// 0xFFFFFF == -1 in 24-bit two's complement, big-endian.
	data := []byte{0xFF, 0xFF, 0xFF}
	got, err := Decode(data, "s3", 1, Int32)
	if err != nil {
		t.Fatal(err)
	}
	if got.([]int32)[0] != -1 {
		t.Fatalf("got %v, want -1", got)
	}

	// 0x7FFFFF is the largest positive 24-bit value, must not sign-extend.
	data2 := []byte{0x7F, 0xFF, 0xFF}
	got2, err := Decode(data2, "s3", 1, Int32)
	if err != nil {
		t.Fatal(err)
	}
	if got2.([]int32)[0] != 0x7FFFFF {
		t.Fatalf("got %v, want %v", got2, 0x7FFFFF)
	}
}

func TestDecodeT4Float(t *testing.T) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(3.5))
	got, err := Decode(buf, "t4", 1, Float32)
	if err != nil {
		t.Fatal(err)
	}
	if got.([]float32)[0] != 3.5 {
		t.Fatalf("got %v, want 3.5", got)
	}
}

func TestDecodeSteimDeltas(t *testing.T) {
	buf := make([]byte, 4+2*2)
	binary.BigEndian.PutUint32(buf[0:4], 100)
	binary.BigEndian.PutUint16(buf[4:6], uint16(int16(5)))
	minus3 := int16(-3)
	binary.BigEndian.PutUint16(buf[6:8], uint16(minus3))
	got, err := Decode(buf, "e1", 3, Int32)
	if err != nil {
		t.Fatal(err)
	}
	want := []int32{100, 105, 102}
	ints := got.([]int32)
	for i := range want {
		if ints[i] != want[i] {
			t.Fatalf("got %v, want %v", ints, want)
		}
	}
}

func TestDecodeASCIIDiff(t *testing.T) {
	got, err := Decode([]byte("100 5 -3"), "ca", 3, Int32)
	if err != nil {
		t.Fatal(err)
	}
	want := []int32{100, 105, 102}
	ints := got.([]int32)
	for i := range want {
		if ints[i] != want[i] {
			t.Fatalf("got %v, want %v", ints, want)
		}
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	if _, err := Decode([]byte{0x00}, "s2", 2, Int32); err == nil {
		t.Fatalf("Decode should fail on a buffer too short for nsamp")
	}
}

func TestDecimateExactBlocks(t *testing.T) {
	buf := make([]byte, 8*2)
	vals := []int16{1, 2, 3, 4, 5, 6, 7, 8}
	for i, v := range vals {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], uint16(v))
	}
	blocks, err := Decimate(buf, "s2", 8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(blocks))
	}
	if blocks[0].Min != 1 || blocks[0].Max != 2 {
		t.Fatalf("block 0 = %+v, want min=1 max=2", blocks[0])
	}
}

func TestDecimateRemainderBlock(t *testing.T) {
	buf := make([]byte, 10*2)
	for i := 0; i < 10; i++ {
		binary.BigEndian.PutUint16(buf[i*2:i*2+2], uint16(i+1))
	}
	blocks, err := Decimate(buf, "s2", 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	// blockSize = 10/3 = 3; blocks at [0:3) [3:6) [6:9) [9:10) -- the
	// last is a short remainder block, not silently dropped.
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4 (3 full + 1 remainder)", len(blocks))
	}
	last := blocks[len(blocks)-1]
	if last.Min != 10 || last.Max != 10 {
		t.Fatalf("remainder block = %+v, want min=max=10", last)
	}
}

func TestDecimateRejectsRequestedGreaterThanNsamp(t *testing.T) {
	if _, err := Decimate([]byte{0, 0}, "s2", 1, 2); err == nil {
		t.Fatalf("Decimate should reject requested > nsamp")
	}
}
