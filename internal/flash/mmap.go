package flash

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Open memory-maps path read-only and returns a Region over its full
// contents, addressed starting at base. The mapping is released by
// calling Close.
func Open(path string, base int64) (*Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("flash: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("flash: stat %s: %w", path, err)
	}
	size := info.Size()
	if size == 0 {
		return newRegion(base, nil, nil), nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("flash: mmap %s: %w", path, err)
	}

	return newRegion(base, data, func() error {
		return unix.Munmap(data)
	}), nil
}
