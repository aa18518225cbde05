package morpheme

import (
	"github.com/npillmayer/morpheme/format"
	"github.com/npillmayer/morpheme/internal/errs"
)

// Error sentinels. Use errors.Is to test for them.
var (
	ErrOpen    = errs.ErrOpen    // file missing or unreadable
	ErrSize    = errs.ErrSize    // file size does not match its contents
	ErrMagic   = errs.ErrMagic   // not a dictionary file
	ErrVersion = errs.ErrVersion // unsupported dictionary version
	ErrCorrupt = errs.ErrCorrupt // inconsistent file contents
	ErrConfig  = errs.ErrConfig  // invalid configuration
	ErrRender  = errs.ErrRender  // output template failed for a node
)

// Kind is the status of a lattice node.
type Kind = format.Kind

const (
	Normal  = format.Normal
	Unknown = format.Unknown
	BOS     = format.BOS
	EOS     = format.EOS
)
