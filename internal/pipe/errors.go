package pipe

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// CreateKind classifies FIFO creation failures by their underlying errno.
type CreateKind string

const (
	KindPermissionDenied CreateKind = "permission_denied"
	KindQuotaExceeded    CreateKind = "disk_quota_exceeded"
	KindAlreadyExists    CreateKind = "already_exists"
	KindNameTooLong      CreateKind = "name_too_long"
	KindMissingParent    CreateKind = "missing_parent_directory"
	KindNoSpace          CreateKind = "no_space"
	KindNotADirectory    CreateKind = "not_a_directory"
	KindReadOnlyFS       CreateKind = "read_only_filesystem"
	KindUnknown          CreateKind = "unknown"
)

// CreateError reports a classified mkfifo failure.
type CreateError struct {
	Path string
	Kind CreateKind
	Err  error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create pipe %s: %s: %v", e.Path, describeCreateKind(e.Kind), e.Err)
}

func (e *CreateError) Unwrap() error {
	return e.Err
}

func classifyCreateError(err error) CreateKind {
	switch {
	case errors.Is(err, unix.EACCES):
		return KindPermissionDenied
	case errors.Is(err, unix.EDQUOT):
		return KindQuotaExceeded
	case errors.Is(err, unix.EEXIST):
		return KindAlreadyExists
	case errors.Is(err, unix.ENAMETOOLONG):
		return KindNameTooLong
	case errors.Is(err, unix.ENOENT):
		return KindMissingParent
	case errors.Is(err, unix.ENOSPC):
		return KindNoSpace
	case errors.Is(err, unix.ENOTDIR):
		return KindNotADirectory
	case errors.Is(err, unix.EROFS):
		return KindReadOnlyFS
	default:
		return KindUnknown
	}
}

func describeCreateKind(kind CreateKind) string {
	switch kind {
	case KindPermissionDenied:
		return "a directory in the path denies search permission"
	case KindQuotaExceeded:
		return "the filesystem quota for blocks or inodes is exhausted"
	case KindAlreadyExists:
		return "the path already exists (possibly as a dangling symlink)"
	case KindNameTooLong:
		return "the path or one of its components is too long"
	case KindMissingParent:
		return "a directory component of the path does not exist"
	case KindNoSpace:
		return "the filesystem has no room for the new file"
	case KindNotADirectory:
		return "a path component used as a directory is not one"
	case KindReadOnlyFS:
		return "the path is on a read-only filesystem"
	default:
		return "unclassified error"
	}
}
