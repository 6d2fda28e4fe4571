// FSRepository tests.
package kivis

import (
	"context"
	"testing"
)

// TestFSRepositoryInsertGetRemove verifies the basic Repository contract
// round-trips through the filesystem.
func TestFSRepositoryInsertGetRemove(t *testing.T) {
	ctx := context.Background()
	fs, err := OpenFSRepository(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFSRepository: %v", err)
	}
	defer fs.Close()

	if err := fs.Insert(ctx, []byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	v, ok, err := fs.Get(ctx, []byte("k"))
	if err != nil || !ok || string(v) != "v1" {
		t.Fatalf("Get = (%q, %v, %v), want (v1, true, nil)", v, ok, err)
	}

	prior, ok, err := fs.Remove(ctx, []byte("k"))
	if err != nil || !ok || string(prior) != "v1" {
		t.Fatalf("Remove = (%q, %v, %v), want (v1, true, nil)", prior, ok, err)
	}
	if _, ok, _ := fs.Get(ctx, []byte("k")); ok {
		t.Error("Get after Remove should report not found")
	}
}

// TestFSRepositoryGetMissingKeyIsFiltered verifies a key that was never
// inserted is rejected by the presence filter without touching disk, and
// still reports simply "not found" rather than an error.
func TestFSRepositoryGetMissingKeyIsFiltered(t *testing.T) {
	ctx := context.Background()
	fs, err := OpenFSRepository(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFSRepository: %v", err)
	}
	defer fs.Close()

	_, ok, err := fs.Get(ctx, []byte("never-written"))
	if err != nil || ok {
		t.Errorf("Get on missing key = ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}

// TestFSRepositoryInsertRetiresPriorValueToHistory verifies overwriting a
// key preserves its previous value, retrievable through History.
func TestFSRepositoryInsertRetiresPriorValueToHistory(t *testing.T) {
	ctx := context.Background()
	fs, err := OpenFSRepository(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFSRepository: %v", err)
	}
	defer fs.Close()

	fs.Insert(ctx, []byte("k"), []byte("v1"))
	fs.Insert(ctx, []byte("k"), []byte("v2"))

	hist, err := fs.History([]byte("k"))
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 1 || string(hist[0]) != "v1" {
		t.Errorf("History = %v, want [v1]", hist)
	}

	v, ok, err := fs.Get(ctx, []byte("k"))
	if err != nil || !ok || string(v) != "v2" {
		t.Fatalf("Get after overwrite = (%q, %v, %v), want (v2, true, nil)", v, ok, err)
	}
}

// TestFSRepositoryScanReturnsDescendingRange verifies Scan filters to the
// given half-open range and returns it in reverse lexicographic order, the
// same contract MemoryRepository honors.
func TestFSRepositoryScanReturnsDescendingRange(t *testing.T) {
	ctx := context.Background()
	fs, err := OpenFSRepository(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFSRepository: %v", err)
	}
	defer fs.Close()

	for _, k := range [][]byte{{1}, {2}, {3}} {
		fs.Insert(ctx, k, k)
	}

	it, err := fs.Scan(ctx, []byte{0}, []byte{10})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	defer it.Close()

	var got []byte
	for {
		k, _, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, k[0])
	}

	want := []byte{3, 2, 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

// TestFSRepositoryCompactPurgesOrphanedHistory verifies Compact removes a
// .hist sidecar once its key has been fully removed, but leaves history for
// keys that are still live.
func TestFSRepositoryCompactPurgesOrphanedHistory(t *testing.T) {
	ctx := context.Background()
	fs, err := OpenFSRepository(t.TempDir())
	if err != nil {
		t.Fatalf("OpenFSRepository: %v", err)
	}
	defer fs.Close()

	fs.Insert(ctx, []byte("gone"), []byte("v1"))
	fs.Insert(ctx, []byte("gone"), []byte("v2"))
	fs.Remove(ctx, []byte("gone"))

	fs.Insert(ctx, []byte("stays"), []byte("v1"))
	fs.Insert(ctx, []byte("stays"), []byte("v2"))

	if err := fs.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	if hist, err := fs.History([]byte("gone")); err != nil || len(hist) != 0 {
		t.Errorf("History(gone) after Compact = %v err=%v, want empty", hist, err)
	}
	if hist, err := fs.History([]byte("stays")); err != nil || len(hist) != 1 {
		t.Errorf("History(stays) after Compact = %v err=%v, want 1 entry", hist, err)
	}
}
