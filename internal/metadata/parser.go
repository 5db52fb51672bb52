// Package metadata decodes sample attributes from measurement filenames of
// the form {sample}_{capping}_{anneal}[_{version}].{ext}.
package metadata

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "labmeas/internal/errors"
	"labmeas/pkg/contracts/domain"
)

const (
	separator   = "_"
	minSegments = 3
	maxSegments = 4
)

// ParseFunc decodes FileMetadata from a path
type ParseFunc func(path string) (domain.FileMetadata, error)

// Parser decodes filenames. Strict rejects names with more than four
// segments; otherwise extra segments are ignored.
type Parser struct {
	Strict bool
}

// Parse decodes path with a strict parser
func Parse(path string) (domain.FileMetadata, error) {
	return Parser{Strict: true}.Parse(path)
}

// Parse strips directories and the final extension, then maps the
// underscore separated segments to sample, capping and anneal. A fourth
// segment is appended to sample as a version tag.
func (p Parser) Parse(path string) (domain.FileMetadata, error) {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.Split(name, separator)
	if len(parts) < minSegments {
		return domain.FileMetadata{}, apperrors.NewMalformedFilenameError(base,
			fmt.Sprintf("want sample_capping_anneal[_version], got %d segment(s)", len(parts)))
	}
	if p.Strict && len(parts) > maxSegments {
		return domain.FileMetadata{}, apperrors.NewMalformedFilenameError(base,
			fmt.Sprintf("want at most %d segments, got %d", maxSegments, len(parts)))
	}
	for i, part := range parts[:min(len(parts), maxSegments)] {
		if part == "" {
			return domain.FileMetadata{}, apperrors.NewMalformedFilenameError(base,
				fmt.Sprintf("segment %d is empty", i+1))
		}
	}

	md := domain.FileMetadata{
		Sample:  parts[0],
		Capping: parts[1],
		Anneal:  parts[2],
	}
	if len(parts) >= maxSegments {
		md.Sample += parts[3]
	}
	return md, nil
}

// Func returns p.Parse as a ParseFunc
func (p Parser) Func() ParseFunc {
	return p.Parse
}
