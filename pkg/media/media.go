// Package media implements the in-memory ARINC 665 media-set tree (spec
// §3.3): MediaSet → Medium → Directory → File, with Load and Batch as
// specialized File variants. The decompiler populates a MediaSet from a
// set of media directories; the compiler walks one to emit protocol
// files and copy payload.
package media

import (
	"strings"

	"github.com/google/uuid"

	"github.com/bgrewell/arinc665-kit/pkg/arincerr"
	"github.com/bgrewell/arinc665-kit/pkg/checkvalue"
	"github.com/bgrewell/arinc665-kit/pkg/medium"
	"github.com/bgrewell/arinc665-kit/pkg/partnumber"
)

// Kind identifies which specialized File variant a node is. Load and
// Batch carry additional data beyond the common File fields; a plain
// RegularFile carries none.
type Kind int

const (
	KindRegularFile Kind = iota
	KindLoad
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindRegularFile:
		return "RegularFile"
	case KindLoad:
		return "Load"
	case KindBatch:
		return "Batch"
	default:
		return "Kind(?)"
	}
}

// FileRef is a stable reference to a File within one MediaSet: an arena
// index plus the owning MediaSet's identity, so a reference accidentally
// carried into a different MediaSet is detectable without following any
// pointer (the stable-index analogue of the original's weak-pointer
// back-references).
type FileRef struct {
	mediaSetID uuid.UUID
	index      int
}

// IsZero reports whether r is the zero FileRef (never a valid reference).
func (r FileRef) IsZero() bool { return r.mediaSetID == uuid.Nil }

// LoadType is a Load's optional classification.
type LoadType struct {
	Description string
	ID          uint16
}

// ThwPositions is one Target-Hardware-Id's ordered position list within a
// Load (spec §3.3; empty Positions is allowed).
type ThwPositions struct {
	TargetHardwareID string
	Positions        []string
}

// LoadFileRef is one data-file or support-file reference within a Load: a
// RegularFile plus the part number and optional check-value-type override
// recorded against that specific reference (spec §3.3).
type LoadFileRef struct {
	File             FileRef
	LoadPartNumber   string
	CheckValueType   *checkvalue.Type
}

// LoadData holds the fields specific to a Load node.
type LoadData struct {
	PartNumber            string
	PartFlags             uint16
	LoadType              *LoadType
	TargetHardware        []ThwPositions
	DataFiles             []LoadFileRef
	SupportFiles          []LoadFileRef
	UserDefinedData       []byte
	LoadCheckValueType    *checkvalue.Type
	DataCheckValueType    *checkvalue.Type
	SupportCheckValueType *checkvalue.Type

	// LoadCrc is the 32-bit CRC over the load's concatenated data- and
	// support-file contents, as recorded in its Load-Header. The
	// decompiler populates it from the decoded header; the compiler
	// recomputes it from the finalized file bytes before encoding.
	LoadCrc uint32
}

// BatchGroup is one target-hardware-id's ordered list of Load references
// within a Batch.
type BatchGroup struct {
	TargetHardwareID string
	Loads            []FileRef
}

// BatchData holds the fields specific to a Batch node.
type BatchData struct {
	PartNumber string
	Comment    string
	Groups     []BatchGroup
}

// File is a node in a MediaSet's directory tree: a RegularFile, Load, or
// Batch. Which of Load/Batch is non-nil is determined by Kind.
type File struct {
	id                     uuid.UUID
	Name                   string
	Parent                 *Directory
	MediumOverride         *medium.Number
	CheckValueTypeOverride *checkvalue.Type

	Kind  Kind
	Load  *LoadData
	Batch *BatchData
}

// Path renders the file's path as its ancestor directory names (below the
// medium root) joined with backslashes, with no leading or trailing
// backslash; pkg/files.EncodePathName turns it into the wire form.
func (f *File) Path() string {
	var parts []string
	for d := f.Parent; d != nil && d.Parent != nil; d = d.Parent {
		parts = append([]string{d.Name}, parts...)
	}
	return strings.Join(parts, `\`)
}

// Directory is a container node: a named group of subdirectories and
// files, unique by name among all of its direct children regardless of
// kind (spec §3.3: "a directory and a file may share a name only if
// forbidden — spec forbids it").
type Directory struct {
	id     uuid.UUID
	Name   string
	Parent *Directory
	Medium *Medium
	Dirs   []*Directory
	Files  []*File
}

func (d *Directory) childNameTaken(name string) bool {
	for _, c := range d.Dirs {
		if c.Name == name {
			return true
		}
	}
	for _, c := range d.Files {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (d *Directory) path() string {
	return d.Path()
}

// Path renders the directory's path as its own and its ancestors' names
// (below the medium root) joined with backslashes, with no leading or
// trailing backslash; pkg/files.EncodePathName turns it into the wire form.
// A medium's root directory (no Parent) renders as the empty string.
func (d *Directory) Path() string {
	var parts []string
	for c := d; c != nil && c.Parent != nil; c = c.Parent {
		parts = append([]string{c.Name}, parts...)
	}
	return strings.Join(parts, `\`)
}

// CreateDirectory adds a new subdirectory named name, failing with
// NameConflictError if a sibling directory or file already uses that
// name.
func (d *Directory) CreateDirectory(name string) (*Directory, error) {
	if d.childNameTaken(name) {
		return nil, &arincerr.NameConflictError{Path: d.path() + `\` + name}
	}
	child := &Directory{id: uuid.New(), Name: name, Parent: d, Medium: d.Medium}
	d.Dirs = append(d.Dirs, child)
	return child, nil
}

// Medium is one numbered medium within a MediaSet, owning a root
// Directory.
type Medium struct {
	Number   medium.Number
	Root     *Directory
	mediaSet *MediaSet
}

// MediaSet is the root of the media-set tree (spec §3.3).
type MediaSet struct {
	id                          uuid.UUID
	PartNumber                  string
	MediaSetCheckValueType      checkvalue.Type
	ListOfFilesCheckValueType   checkvalue.Type
	ListOfLoadsCheckValueType   checkvalue.Type
	ListOfBatchesCheckValueType checkvalue.Type
	FilesCheckValueType         checkvalue.Type
	DefaultMediumNumber         medium.Number

	// FilesUserDefinedData, LoadsUserDefinedData, and BatchesUserDefinedData
	// carry each protocol file's own user-defined-data trailer (spec §3.4)
	// across a decompile/compile round trip. These are media-set-wide,
	// matching the wire format: FILES.LUM, LOADS.LUM, and BATCHES.LUM each
	// have exactly one user-defined-data block, not one per medium.
	FilesUserDefinedData   []byte
	LoadsUserDefinedData   []byte
	BatchesUserDefinedData []byte

	media []*Medium // index i holds medium number i+1; contiguous 1..N
	arena []*File   // backing store for FileRef
}

// NewMediaSet constructs an empty MediaSet with no media yet.
func NewMediaSet(partNumber string, filesCheckValueType checkvalue.Type) (*MediaSet, error) {
	if _, err := partnumber.Parse(partNumber); err != nil {
		return nil, err
	}
	return &MediaSet{
		id:                  uuid.New(),
		PartNumber:          partNumber,
		FilesCheckValueType: filesCheckValueType,
		DefaultMediumNumber: medium.First,
	}, nil
}

// AddMedium appends the next medium (media-set media numbers must be
// contiguous starting at 1; this is the only way to add one).
func (ms *MediaSet) AddMedium() *Medium {
	n := medium.New(uint8(len(ms.media) + 1))
	root := &Directory{id: uuid.New()}
	m := &Medium{Number: n, Root: root, mediaSet: ms}
	root.Medium = m
	ms.media = append(ms.media, m)
	return m
}

// Media returns the media-set's media in order 1..N.
func (ms *MediaSet) Media() []*Medium {
	return append([]*Medium{}, ms.media...)
}

// Medium returns the medium with the given number, or nil.
func (ms *MediaSet) Medium(n medium.Number) *Medium {
	idx := int(n.Uint8()) - 1
	if idx < 0 || idx >= len(ms.media) {
		return nil
	}
	return ms.media[idx]
}

func (ms *MediaSet) register(f *File) FileRef {
	ms.arena = append(ms.arena, f)
	return FileRef{mediaSetID: ms.id, index: len(ms.arena) - 1}
}

// Resolve dereferences a FileRef, failing with ErrCrossMediaSetReference
// if r belongs to a different MediaSet.
func (ms *MediaSet) Resolve(r FileRef) (*File, error) {
	if r.mediaSetID != ms.id {
		return nil, arincerr.ErrCrossMediaSetReference
	}
	if r.index < 0 || r.index >= len(ms.arena) {
		return nil, arincerr.ErrCrossMediaSetReference
	}
	return ms.arena[r.index], nil
}

// RefOf recovers the FileRef of a File previously obtained via Resolve or a
// tree walk (RecursiveFiles and friends), failing with
// ErrCrossMediaSetReference if f was not created through ms.
func (ms *MediaSet) RefOf(f *File) (FileRef, error) {
	for i, candidate := range ms.arena {
		if candidate == f {
			return FileRef{mediaSetID: ms.id, index: i}, nil
		}
	}
	return FileRef{}, arincerr.ErrCrossMediaSetReference
}

// CreateRegularFile adds a RegularFile named name to dir.
func (ms *MediaSet) CreateRegularFile(dir *Directory, name string) (FileRef, error) {
	if dir.childNameTaken(name) {
		return FileRef{}, &arincerr.NameConflictError{Path: dir.path() + `\` + name}
	}
	f := &File{id: uuid.New(), Name: name, Parent: dir, Kind: KindRegularFile}
	dir.Files = append(dir.Files, f)
	return ms.register(f), nil
}

// CreateLoad adds a Load named name to dir. Every DataFiles/SupportFiles
// reference must resolve within ms or CrossMediaSetReference is returned
// and no mutation is made.
func (ms *MediaSet) CreateLoad(dir *Directory, name string, data LoadData) (FileRef, error) {
	if dir.childNameTaken(name) {
		return FileRef{}, &arincerr.NameConflictError{Path: dir.path() + `\` + name}
	}
	for _, ref := range data.DataFiles {
		if _, err := ms.Resolve(ref.File); err != nil {
			return FileRef{}, err
		}
	}
	for _, ref := range data.SupportFiles {
		if _, err := ms.Resolve(ref.File); err != nil {
			return FileRef{}, err
		}
	}
	loadData := data
	f := &File{id: uuid.New(), Name: name, Parent: dir, Kind: KindLoad, Load: &loadData}
	dir.Files = append(dir.Files, f)
	return ms.register(f), nil
}

// CreateBatch adds a Batch named name to dir. Every Loads reference must
// resolve within ms, and data.PartNumber must be a valid PartNumber.
func (ms *MediaSet) CreateBatch(dir *Directory, name string, data BatchData) (FileRef, error) {
	if dir.childNameTaken(name) {
		return FileRef{}, &arincerr.NameConflictError{Path: dir.path() + `\` + name}
	}
	if _, err := partnumber.Parse(data.PartNumber); err != nil {
		return FileRef{}, err
	}
	for _, g := range data.Groups {
		for _, ref := range g.Loads {
			target, err := ms.Resolve(ref)
			if err != nil {
				return FileRef{}, err
			}
			if target.Kind != KindLoad {
				return FileRef{}, &arincerr.DanglingReferenceError{From: name, To: target.Name}
			}
		}
	}
	batchData := data
	f := &File{id: uuid.New(), Name: name, Parent: dir, Kind: KindBatch, Batch: &batchData}
	dir.Files = append(dir.Files, f)
	return ms.register(f), nil
}

// RenameFile changes a File's name, enforcing sibling-name
// uniqueness in its (unchanged) parent.
func (ms *MediaSet) RenameFile(ref FileRef, newName string) error {
	f, err := ms.Resolve(ref)
	if err != nil {
		return err
	}
	if f.Parent.childNameTaken(newName) {
		return &arincerr.NameConflictError{Path: f.Parent.path() + `\` + newName}
	}
	f.Name = newName
	return nil
}

// Rename changes a Directory's name, enforcing sibling-name uniqueness in
// its (unchanged) parent. A Medium's root directory has no name and
// cannot be renamed.
func (d *Directory) Rename(newName string) error {
	if d.Parent == nil {
		return &arincerr.InvalidFormatError{Reason: "cannot rename a medium's root directory"}
	}
	if d.Parent.childNameTaken(newName) {
		return &arincerr.NameConflictError{Path: d.Parent.path() + `\` + newName}
	}
	d.Name = newName
	return nil
}

// MoveFile relocates a File to a new parent directory, enforcing
// sibling-name uniqueness there.
func (ms *MediaSet) MoveFile(ref FileRef, newParent *Directory) error {
	f, err := ms.Resolve(ref)
	if err != nil {
		return err
	}
	if newParent.childNameTaken(f.Name) {
		return &arincerr.NameConflictError{Path: newParent.path() + `\` + f.Name}
	}
	old := f.Parent
	for i, c := range old.Files {
		if c == f {
			old.Files = append(old.Files[:i], old.Files[i+1:]...)
			break
		}
	}
	f.Parent = newParent
	newParent.Files = append(newParent.Files, f)
	return nil
}

// EffectiveMediumNumber resolves a File's medium number: its own override
// if present, else the number of the Medium containing it.
func EffectiveMediumNumber(f *File) medium.Number {
	if f.MediumOverride != nil {
		return *f.MediumOverride
	}
	d := f.Parent
	for d.Parent != nil {
		d = d.Parent
	}
	return d.Medium.Number
}

// EffectiveCheckValueType resolves a File's check-value type: its own
// override if present, else the MediaSet's FilesCheckValueType.
func EffectiveCheckValueType(ms *MediaSet, f *File) checkvalue.Type {
	if f.CheckValueTypeOverride != nil {
		return *f.CheckValueTypeOverride
	}
	return ms.FilesCheckValueType
}

// effectiveListCheckValueType resolves a MediaSet-level list check-value
// type: the explicit override if not NotUsed, else the MediaSetCheckValueType
// ("None means inherit", per spec Open Question resolution in DESIGN.md).
func effectiveListCheckValueType(ms *MediaSet, override checkvalue.Type) checkvalue.Type {
	if override != checkvalue.NotUsed {
		return override
	}
	return ms.MediaSetCheckValueType
}

// EffectiveListOfFilesCheckValueType resolves the FILES.LUM list check value type.
func EffectiveListOfFilesCheckValueType(ms *MediaSet) checkvalue.Type {
	return effectiveListCheckValueType(ms, ms.ListOfFilesCheckValueType)
}

// EffectiveListOfLoadsCheckValueType resolves the LOADS.LUM list check value type.
func EffectiveListOfLoadsCheckValueType(ms *MediaSet) checkvalue.Type {
	return effectiveListCheckValueType(ms, ms.ListOfLoadsCheckValueType)
}

// EffectiveListOfBatchesCheckValueType resolves the BATCHES.LUM list check value type.
func EffectiveListOfBatchesCheckValueType(ms *MediaSet) checkvalue.Type {
	return effectiveListCheckValueType(ms, ms.ListOfBatchesCheckValueType)
}

// FilePathMapping maps a File's stable reference to an external source
// path (spec §3.4): produced by the decompiler (relative to the medium
// directory the file was read from) and consumed by the compiler to
// locate payload bytes to copy.
type FilePathMapping map[FileRef]string

// CheckValues maps a File's stable reference to the check value
// verified or computed for it (spec §3.4), carried alongside a MediaSet
// rather than stored on the node itself.
type CheckValues map[FileRef]checkvalue.CheckValue

// EnsureDirectoryPath walks, creating as needed, the directory chain
// named by a backslash-separated pathname (as produced by
// pkg/files.EncodePathName) under root, returning the leaf Directory. An
// empty or root-only pathname returns root itself.
func EnsureDirectoryPath(root *Directory, pathname string) (*Directory, error) {
	dir := root
	for _, part := range strings.Split(strings.Trim(pathname, `\`), `\`) {
		if part == "" {
			continue
		}
		var next *Directory
		for _, d := range dir.Dirs {
			if d.Name == part {
				next = d
				break
			}
		}
		if next == nil {
			var err error
			next, err = dir.CreateDirectory(part)
			if err != nil {
				return nil, err
			}
		}
		dir = next
	}
	return dir, nil
}

// RecursiveFiles returns every File under dir in pre-order, stable
// insertion order.
func RecursiveFiles(dir *Directory) []*File {
	var out []*File
	out = append(out, dir.Files...)
	for _, sub := range dir.Dirs {
		out = append(out, RecursiveFiles(sub)...)
	}
	return out
}

func recursiveByKind(dir *Directory, k Kind) []*File {
	var out []*File
	for _, f := range RecursiveFiles(dir) {
		if f.Kind == k {
			out = append(out, f)
		}
	}
	return out
}

// RecursiveLoads returns every Load under dir in pre-order.
func RecursiveLoads(dir *Directory) []*File { return recursiveByKind(dir, KindLoad) }

// RecursiveBatches returns every Batch under dir in pre-order.
func RecursiveBatches(dir *Directory) []*File { return recursiveByKind(dir, KindBatch) }

// Validate checks the MediaSet's invariants (spec §3.3): contiguous media
// numbering, every file's effective medium number in range, every
// Load/Batch reference resolving within the same MediaSet, and every
// Batch part number well-formed. It does not re-check sibling-name
// uniqueness, which create/rename/move already enforce on every mutation.
func (ms *MediaSet) Validate() error {
	if len(ms.media) == 0 {
		return &arincerr.MediaSetInconsistentError{Medium: "", Field: "media set has no media"}
	}
	for i, m := range ms.media {
		if m.Number.Uint8() != uint8(i+1) {
			return &arincerr.MediaSetInconsistentError{Medium: m.Number.String(), Field: "media numbers must be contiguous starting at 1"}
		}
		for _, f := range RecursiveFiles(m.Root) {
			eff := EffectiveMediumNumber(f)
			if int(eff.Uint8()) < 1 || int(eff.Uint8()) > len(ms.media) {
				return &arincerr.MediaSetInconsistentError{Medium: m.Number.String(), Field: "file " + f.Name + " effective medium out of range"}
			}
			if f.Kind == KindLoad {
				for _, ref := range f.Load.DataFiles {
					if _, err := ms.Resolve(ref.File); err != nil {
						return &arincerr.DanglingReferenceError{From: f.Name, To: "data file reference"}
					}
				}
				for _, ref := range f.Load.SupportFiles {
					if _, err := ms.Resolve(ref.File); err != nil {
						return &arincerr.DanglingReferenceError{From: f.Name, To: "support file reference"}
					}
				}
			}
			if f.Kind == KindBatch {
				if _, err := partnumber.Parse(f.Batch.PartNumber); err != nil {
					return err
				}
				for _, g := range f.Batch.Groups {
					for _, ref := range g.Loads {
						if _, err := ms.Resolve(ref); err != nil {
							return &arincerr.DanglingReferenceError{From: f.Name, To: "load reference"}
						}
					}
				}
			}
		}
	}
	return nil
}
