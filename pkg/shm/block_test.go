package shm

import (
	"bytes"
	"errors"
	"sync"
	"testing"
)

func TestBlockReadWriteUnaligned(t *testing.T) {
	for _, off := range []int{0, 1, 2, 3, 5} {
		for _, n := range []int{0, 1, 3, 4, 7, 13} {
			b, err := New(32)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			src := make([]byte, n)
			for i := range src {
				src[i] = byte(0xA0 + i)
			}

			if err := b.WriteAt(src, off); err != nil {
				t.Fatalf("WriteAt(off=%d, n=%d) failed: %v", off, n, err)
			}
			got := make([]byte, n)
			if err := b.ReadAt(got, off); err != nil {
				t.Fatalf("ReadAt failed: %v", err)
			}
			if !bytes.Equal(got, src) {
				t.Errorf("off=%d n=%d: read % X, want % X", off, n, got, src)
			}

			// Bytes around the written range stay zero.
			all := make([]byte, b.Len())
			if err := b.ReadAt(all, 0); err != nil {
				t.Fatalf("ReadAt failed: %v", err)
			}
			for i, v := range all {
				if (i < off || i >= off+n) && v != 0 {
					t.Errorf("off=%d n=%d: byte %d = %#x outside written range", off, n, i, v)
				}
			}
		}
	}
}

func TestBlockStoreByteKeepsNeighbours(t *testing.T) {
	b, _ := New(8)
	if err := b.WriteAt([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 0); err != nil {
		t.Fatalf("WriteAt failed: %v", err)
	}

	if err := b.StoreByte(2, 0xEE); err != nil {
		t.Fatalf("StoreByte failed: %v", err)
	}

	got := make([]byte, 8)
	_ = b.ReadAt(got, 0)
	want := []byte{1, 2, 0xEE, 4, 5, 6, 7, 8}
	if !bytes.Equal(got, want) {
		t.Errorf("block = % X, want % X", got, want)
	}
	if v, _ := b.LoadByte(2); v != 0xEE {
		t.Errorf("LoadByte(2) = %#x", v)
	}
}

func TestBlockAddByte(t *testing.T) {
	b, _ := New(4)
	_ = b.WriteAt([]byte{9, 0, 0xFE, 7}, 0)

	if v, err := b.AddByte(1, 1); err != nil || v != 1 {
		t.Fatalf("AddByte(1, 1) = %d, %v", v, err)
	}
	if v, _ := b.AddByte(1, -5); v != 0 {
		t.Errorf("AddByte below zero = %d, want 0", v)
	}
	if v, _ := b.AddByte(2, 3); v != 0xFF {
		t.Errorf("AddByte above 255 = %#x, want 0xFF", v)
	}
	if v, _ := b.AddByte(2, -1); v != 0xFF {
		t.Errorf("saturated byte decremented to %#x", v)
	}

	got := make([]byte, 4)
	_ = b.ReadAt(got, 0)
	if want := []byte{9, 0, 0xFF, 7}; !bytes.Equal(got, want) {
		t.Errorf("block = % X, want % X", got, want)
	}

	if _, err := b.AddByte(4, 1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("AddByte(4) error = %v, want ErrOutOfRange", err)
	}
}

func TestBlockOutOfRange(t *testing.T) {
	b, _ := New(6)

	if _, err := b.LoadByte(6); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("LoadByte(6) error = %v", err)
	}
	if err := b.StoreByte(-1, 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("StoreByte(-1) error = %v", err)
	}
	if err := b.WriteAt(make([]byte, 4), 3); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("WriteAt past end error = %v", err)
	}
	if err := b.ReadAt(make([]byte, 7), 0); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ReadAt larger than block error = %v", err)
	}
	if _, err := New(-1); err == nil {
		t.Error("New(-1) should fail")
	}
}

func TestBlockFill(t *testing.T) {
	b, _ := New(10)
	if err := b.Fill(3, 4, 0x11); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	got := make([]byte, 10)
	_ = b.ReadAt(got, 0)
	want := []byte{0, 0, 0, 0x11, 0x11, 0x11, 0x11, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("block = % X, want % X", got, want)
	}
}

func TestBlockSequenceParity(t *testing.T) {
	b, _ := New(4)
	if b.Sequence()%2 != 0 {
		t.Fatal("fresh block sequence should be even")
	}
	b.BeginWrite()
	if b.Sequence()%2 != 1 {
		t.Error("sequence should be odd during a write")
	}
	b.EndWrite()
	if got := b.Sequence(); got != 2 {
		t.Errorf("Sequence = %d, want 2", got)
	}
}

// TestBlockConcurrentAccess exercises one writer and several readers. Run
// with -race: every access must be atomic.
func TestBlockConcurrentAccess(t *testing.T) {
	b, _ := New(64)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 61)
		for n := 0; n < 2000; n++ {
			for i := range buf {
				buf[i] = byte(n)
			}
			b.BeginWrite()
			_ = b.WriteAt(buf, 3)
			b.EndWrite()
		}
		close(stop)
	}()

	for r := 0; r < 3; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 61)
			for {
				select {
				case <-stop:
					return
				default:
				}
				before := b.Sequence()
				_ = b.ReadAt(buf, 3)
				if before%2 == 0 && b.Sequence() == before {
					for i := range buf {
						if buf[i] != buf[0] {
							t.Errorf("stable read is torn at byte %d", i)
							return
						}
					}
				}
			}
		}()
	}

	wg.Wait()
}
