// Package location maps a storage location kind to the directory holding a
// database file.
package location

import (
	"strconv"
	"strings"

	"github.com/maruel/plugindata/internal/errors"
)

// Kind selects the directory a database file lives in.
type Kind int

const (
	// SharedRoot is the host's top-level working directory, shared by all owners.
	SharedRoot Kind = iota
	// OwnerPrivate is the owner's own data directory.
	OwnerPrivate
)

func (k Kind) String() string {
	switch k {
	case SharedRoot:
		return "shared_root"
	case OwnerPrivate:
		return "owner_private"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// ParseKind parses the value returned by Kind.String, or the short forms
// "shared" and "owner".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared", "shared_root", "root":
		return SharedRoot, nil
	case "owner", "owner_private", "private":
		return OwnerPrivate, nil
	}
	return 0, errors.UnknownKind(s)
}

// Owner is the host context a store belongs to.
//
// Implementations must be comparable; two stores are only equal when their
// owners compare equal.
type Owner interface {
	// Name identifies the owner in logs.
	Name() string
	// RootDir is the host's top-level working directory.
	RootDir() string
	// DataDir is the owner's private data directory.
	DataDir() string
}

// Dir is a plain Owner.
type Dir struct {
	OwnerName string
	Root      string
	Data      string
}

// Name implements Owner.
func (d Dir) Name() string { return d.OwnerName }

// RootDir implements Owner.
func (d Dir) RootDir() string { return d.Root }

// DataDir implements Owner.
func (d Dir) DataDir() string { return d.Data }

// Resolve returns the directory for kind. It does not create it.
func Resolve(kind Kind, owner Owner) (string, error) {
	switch kind {
	case SharedRoot:
		return owner.RootDir(), nil
	case OwnerPrivate:
		return owner.DataDir(), nil
	}
	return "", errors.UnknownKind(kind)
}
