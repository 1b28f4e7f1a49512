package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	n, err := store.Put(ctx, "/c4x/edX/Demo/asset/notes.txt", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if n != 11 {
		t.Errorf("Put() n = %d, want 11", n)
	}

	if n, err = store.Stat(ctx, "/c4x/edX/Demo/asset/notes.txt"); err != nil || n != 11 {
		t.Errorf("Stat() = (%d, %v), want (11, nil)", n, err)
	}

	obj, err := store.Open(ctx, "/c4x/edX/Demo/asset/notes.txt")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer obj.Close()
	if obj.Size() != 11 {
		t.Errorf("Size() = %d, want 11", obj.Size())
	}

	buf := make([]byte, 5)
	if err = obj.Seek(6); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if n, err := obj.Read(buf); err != nil || !bytes.Equal(buf[:n], []byte("world")) {
		t.Errorf("Read() = (%q, %v), want (\"world\", nil)", buf[:n], err)
	}

	if err = store.Delete(ctx, "/c4x/edX/Demo/asset/notes.txt"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err = store.Open(ctx, "/c4x/edX/Demo/asset/notes.txt"); err != ErrNotFound {
		t.Errorf("Open() after delete error = %v, want ErrNotFound", err)
	}
	if err = store.Delete(ctx, "/c4x/edX/Demo/asset/notes.txt"); err != ErrNotFound {
		t.Errorf("Delete() after delete error = %v, want ErrNotFound", err)
	}
}

// the in-memory cursor advances by the full buffer size even when fewer bytes
// remain; a fresh Seek must always recover the cursor.
func TestMemoryObject_cursor(t *testing.T) {
	obj := &memoryObject{data: []byte("hello world")}

	buf := make([]byte, 10)
	if err := obj.Seek(6); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	n, err := obj.Read(buf)
	if err != nil || n != 5 || string(buf[:n]) != "world" {
		t.Errorf("Read() = (%d, %q, %v), want (5, \"world\", nil)", n, buf[:n], err)
	}

	// cursor is now past the end
	if n, err = obj.Read(buf); err != io.EOF || n != 0 {
		t.Errorf("Read() past end = (%d, %v), want (0, EOF)", n, err)
	}

	if err = obj.Seek(0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if n, err = obj.Read(buf[:5]); err != nil || string(buf[:n]) != "hello" {
		t.Errorf("Read() after reset = (%q, %v), want (\"hello\", nil)", buf[:n], err)
	}

	if err = obj.Seek(-1); err == nil {
		t.Error("Seek(-1) error = nil, want error")
	}
}

func TestFSStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	key := "/c4x/edX/Demo/asset/logo.png"
	data := strings.Repeat("darasa", 100)
	n, err := store.Put(ctx, key, strings.NewReader(data))
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if n != int64(len(data)) {
		t.Errorf("Put() n = %d, want %d", n, len(data))
	}

	obj, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer obj.Close()
	if obj.Size() != int64(len(data)) {
		t.Errorf("Size() = %d, want %d", obj.Size(), len(data))
	}

	buf := make([]byte, 6)
	if err = obj.Seek(6); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if n, err := obj.Read(buf); err != nil || string(buf[:n]) != "darasa" {
		t.Errorf("Read() = (%q, %v), want (\"darasa\", nil)", buf[:n], err)
	}

	if _, err = store.Stat(ctx, "/c4x/edX/Demo/asset/nope.png"); err != ErrNotFound {
		t.Errorf("Stat() missing key error = %v, want ErrNotFound", err)
	}
	if _, err = store.Open(ctx, "../../../etc/passwd"); err == nil {
		t.Error("Open() escaping key error = nil, want error")
	}

	if err = store.Delete(ctx, key); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
	if _, err = store.Open(ctx, key); err != ErrNotFound {
		t.Errorf("Open() after delete error = %v, want ErrNotFound", err)
	}
}
