//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func osMap(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}

var madvise = map[Hint]int{
	HintNormal:  unix.MADV_NORMAL,
	HintRecords: unix.MADV_RANDOM,
	HintScan:    unix.MADV_SEQUENTIAL,
}

func osAdvise(data []byte, hint Hint) error {
	if len(data) == 0 {
		return nil
	}
	advice, ok := madvise[hint]
	if !ok {
		advice = unix.MADV_NORMAL
	}
	// EINVAL only means the hint was not taken.
	if err := unix.Madvise(data, advice); err != nil && err != unix.EINVAL {
		return err
	}
	return nil
}
