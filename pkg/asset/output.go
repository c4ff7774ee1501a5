package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/calvin-dev/calvin/pkg/target"
)

// OutputFile is a compiled text artifact ready to be written by the sync
// engine. Path is destination-relative: a leading "~/" marks a home-scoped
// output, everything else is project-relative (spec §3).
type OutputFile struct {
	path    string
	content string
	target  target.Target

	hashOnce sync.Once
	hash     string
}

// NewOutputFile constructs an immutable text output. path uses forward
// slashes; a leading "~/" marks a home-scoped destination.
func NewOutputFile(path, content string, t target.Target) *OutputFile {
	return &OutputFile{path: path, content: content, target: t}
}

func (o *OutputFile) Path() string           { return o.path }
func (o *OutputFile) Content() string        { return o.content }
func (o *OutputFile) Target() target.Target  { return o.target }
func (o *OutputFile) IsHomeScoped() bool     { return strings.HasPrefix(o.path, "~/") || o.path == "~" }

// Hash returns the content hash in "sha256:<hex>" form, computed lazily and
// cached (spec §3, testable property 3: repeated calls are stable).
func (o *OutputFile) Hash() string {
	o.hashOnce.Do(func() {
		o.hash = HashContent([]byte(o.content))
	})
	return o.hash
}

// BinaryOutputFile is the binary counterpart of OutputFile, produced only by
// Skill compilation for binary supplementals.
type BinaryOutputFile struct {
	path    string
	content []byte
	target  target.Target

	hashOnce sync.Once
	hash     string
}

func NewBinaryOutputFile(path string, content []byte, t target.Target) *BinaryOutputFile {
	return &BinaryOutputFile{path: path, content: content, target: t}
}

func (o *BinaryOutputFile) Path() string          { return o.path }
func (o *BinaryOutputFile) Content() []byte       { return o.content }
func (o *BinaryOutputFile) Target() target.Target { return o.target }
func (o *BinaryOutputFile) IsHomeScoped() bool {
	return strings.HasPrefix(o.path, "~/") || o.path == "~"
}

func (o *BinaryOutputFile) Hash() string {
	o.hashOnce.Do(func() {
		o.hash = HashContent(o.content)
	})
	return o.hash
}

// HashContent computes the "sha256:<hex>" content hash shared by text and
// binary outputs and by the sync engine's destination probes.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(sum[:])
}
