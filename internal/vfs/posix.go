package vfs

import "golang.org/x/sys/unix"

// PosixTypeBits returns the S_IFMT file-type bits a POSIX st_mode would
// carry for t, so backends can report a Mode that looks like a real
// stat(2) result rather than bare permission bits.
func PosixTypeBits(t FileType) uint32 {
	switch t {
	case TypeRegular:
		return unix.S_IFREG
	case TypeDirectory:
		return unix.S_IFDIR
	case TypeBlockDevice:
		return unix.S_IFBLK
	case TypeCharDevice:
		return unix.S_IFCHR
	case TypeSymlink:
		return unix.S_IFLNK
	case TypeSocket:
		return unix.S_IFSOCK
	case TypeFIFO:
		return unix.S_IFIFO
	default:
		return 0
	}
}
