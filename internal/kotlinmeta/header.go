// Package kotlinmeta decodes the kotlin.Metadata annotation that the Kotlin
// compiler writes into every class file it produces, and dumps the protobuf
// messages it carries in a stable text form.
package kotlinmeta

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/harrison/outcmp/internal/classfile"
)

// Descriptor is the type descriptor of the metadata annotation.
const Descriptor = "Lkotlin/Metadata;"

var (
	// ErrIncompatibleVersion is returned when a class carries metadata newer
	// than the configured version can read.
	ErrIncompatibleVersion = errors.New("incompatible metadata version")
	// ErrUnknownKind is returned for metadata kinds that carry no known
	// message type.
	ErrUnknownKind = errors.New("unrecognized metadata kind")
	// ErrMalformed is returned for undecodable metadata.
	ErrMalformed = errors.New("malformed metadata")
)

// Kind is the value of the annotation's k element.
type Kind int

const (
	KindClass                Kind = 1
	KindFileFacade           Kind = 2
	KindSyntheticClass       Kind = 3
	KindMultiFileClassFacade Kind = 4
	KindMultiFileClassPart   Kind = 5
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "CLASS"
	case KindFileFacade:
		return "FILE_FACADE"
	case KindSyntheticClass:
		return "SYNTHETIC_CLASS"
	case KindMultiFileClassFacade:
		return "MULTIFILE_CLASS"
	case KindMultiFileClassPart:
		return "MULTIFILE_CLASS_PART"
	}
	return "UNKNOWN(" + strconv.Itoa(int(k)) + ")"
}

// Version is a metadata version triple.
type Version struct {
	Major, Minor, Patch int
}

// ParseVersion parses "major.minor[.patch]".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid metadata version %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid metadata version %q", s)
		}
		nums[i] = n
	}
	return Version{nums[0], nums[1], nums[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsCompatible reports whether metadata written with version v can be read
// by a reader that supports current. Versions 0.x and 1.0.x are pre-release
// and never readable; anything else is readable up to the release after
// current.
func (v Version) IsCompatible(current Version) bool {
	if v.Major == 0 || (v.Major == 1 && v.Minor == 0) {
		return false
	}
	return !v.newerThan(current.next())
}

// next returns the first release after v. 1.9 is followed by 2.0.
func (v Version) next() Version {
	if v.Major == 1 && v.Minor == 9 {
		return Version{2, 0, 0}
	}
	return Version{v.Major, v.Minor + 1, 0}
}

func (v Version) newerThan(o Version) bool {
	if v.Major != o.Major {
		return v.Major > o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

// Header is the decoded kotlin.Metadata annotation.
type Header struct {
	Kind            Kind
	MetadataVersion Version
	// Data holds the encoded protobuf messages (d1).
	Data []string
	// Strings is the string table the messages index into (d2).
	Strings     []string
	ExtraString string
	PackageName string
	ExtraInt    int
}

func (h *Header) String() string {
	return fmt.Sprintf("kind=%s, metadataVersion=%s, extraInt=%d", h.Kind, h.MetadataVersion, h.ExtraInt)
}

// ReadHeader extracts the metadata annotation from a parsed class. It returns
// nil without error when the class was not produced by the Kotlin compiler.
func ReadHeader(cf *classfile.ClassFile) (*Header, error) {
	ann, err := cf.FindAnnotation(Descriptor)
	if err != nil || ann == nil {
		return nil, err
	}

	h := &Header{Kind: KindClass}
	for _, e := range ann.Elements {
		var err error
		switch e.Name {
		case "k":
			var ks []int
			if ks, err = e.Value.Ints(); err == nil && len(ks) == 1 {
				h.Kind = Kind(ks[0])
			}
		case "mv":
			var mv []int
			if mv, err = e.Value.Ints(); err == nil {
				h.MetadataVersion = versionFrom(mv)
			}
		case "d1":
			h.Data, err = e.Value.Strings()
		case "d2":
			h.Strings, err = e.Value.Strings()
		case "xs":
			h.ExtraString = e.Value.Str
		case "pn":
			h.PackageName = e.Value.Str
		case "xi":
			var xi []int
			if xi, err = e.Value.Ints(); err == nil && len(xi) == 1 {
				h.ExtraInt = xi[0]
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: element %s: %v", ErrMalformed, e.Name, err)
		}
	}
	return h, nil
}

func versionFrom(parts []int) Version {
	var v Version
	if len(parts) > 0 {
		v.Major = parts[0]
	}
	if len(parts) > 1 {
		v.Minor = parts[1]
	}
	if len(parts) > 2 {
		v.Patch = parts[2]
	}
	return v
}
