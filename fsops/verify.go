package fsops

import (
	"math/rand"
	"os"

	"github.com/famfs-go/famfs"
)

// FillSeeded overwrites f's contents with a deterministic pseudo-random byte
// stream keyed by seed. It's the counterpart to VerifySeeded, letting the
// CLI's "creat" and test fixtures produce content a later "verify" can
// check against.
func FillSeeded(f *os.File, seed int64) error {
	info, err := f.Stat()
	if err != nil {
		return famfs.ErrIo.Wrap(err)
	}

	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, info.Size())
	if _, err := r.Read(buf); err != nil {
		return famfs.ErrIo.Wrap(err)
	}

	if _, err := f.WriteAt(buf, 0); err != nil {
		return famfs.ErrIo.Wrap(err)
	}
	return nil
}

// VerifySeeded reads path's contents and reports whether they match the
// deterministic byte stream FillSeeded would have produced for seed.
func VerifySeeded(path string, seed int64) (bool, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return false, famfs.ErrIo.Wrap(err)
	}

	r := rand.New(rand.NewSource(seed))
	expected := make([]byte, len(contents))
	if _, err := r.Read(expected); err != nil {
		return false, famfs.ErrIo.Wrap(err)
	}

	for i := range contents {
		if contents[i] != expected[i] {
			return false, nil
		}
	}
	return true, nil
}
