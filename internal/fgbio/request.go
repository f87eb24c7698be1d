// Package fgbio models the SortBam and FilterBam requests, validates them,
// and turns them into argument vectors for the fgbio command line.
//
// Nothing in this package reads BAM content or launches processes; the
// toolkit is treated as an opaque binary.
package fgbio

import (
	"path/filepath"
	"strings"
)

// SortOrder is the record ordering requested from SortBam.
type SortOrder string

// Sort orders accepted by SortBam.
const (
	SortCoordinate SortOrder = "coordinate"
	SortQueryname  SortOrder = "queryname"
	SortRandom     SortOrder = "random"
	SortUnsorted   SortOrder = "unsorted"
)

// SortOrders lists every accepted order, in documentation order.
var SortOrders = []SortOrder{SortCoordinate, SortQueryname, SortRandom, SortUnsorted}

// ParseSortOrder accepts an order name case-insensitively. An empty string
// yields the default, SortCoordinate.
func ParseSortOrder(s string) (SortOrder, error) {
	if strings.TrimSpace(s) == "" {
		return SortCoordinate, nil
	}
	for _, o := range SortOrders {
		if strings.EqualFold(strings.TrimSpace(s), string(o)) {
			return o, nil
		}
	}
	return "", invalid("sort_order", "unknown sort order %q (want one of coordinate, queryname, random, unsorted)", s)
}

// flag returns the spelling fgbio's SortOrder enum expects.
func (o SortOrder) flag() string {
	switch o {
	case SortQueryname:
		return "Queryname"
	case SortRandom:
		return "Random"
	case SortUnsorted:
		return "Unsorted"
	default:
		return "Coordinate"
	}
}

// SortRequest is the input of the sort_bam tool.
type SortRequest struct {
	InputBAM        string    `json:"input_bam"`
	OutputBAM       string    `json:"output_bam"`
	SortOrder       SortOrder `json:"sort_order,omitempty"`
	TempDir         *string   `json:"temp_dir,omitempty"`
	MaxRecordsInRAM *int      `json:"max_records_in_ram,omitempty"`
}

// DefaultSortRequest returns a request with every default filled in.
// Decoding JSON into it keeps defaults for absent fields.
func DefaultSortRequest() SortRequest {
	return SortRequest{SortOrder: SortCoordinate}
}

// FilterRequest is the input of the filter_bam tool. Booleans and MinMapQ
// default to fgbio FilterBam's own defaults.
type FilterRequest struct {
	InputBAM                  string  `json:"input_bam"`
	OutputBAM                 string  `json:"output_bam"`
	Rejects                   *string `json:"rejects,omitempty"`
	Intervals                 *string `json:"intervals,omitempty"`
	RemoveDuplicates          bool    `json:"remove_duplicates"`
	RemoveUnmappedReads       bool    `json:"remove_unmapped_reads"`
	MinMapQ                   int     `json:"min_map_q"`
	RemoveSingleEndMappings   bool    `json:"remove_single_end_mappings"`
	RemoveSecondaryAlignments bool    `json:"remove_secondary_alignments"`
	MinInsertSize             *int    `json:"min_insert_size,omitempty"`
	MaxInsertSize             *int    `json:"max_insert_size,omitempty"`
	MinMappedBases            *int    `json:"min_mapped_bases,omitempty"`
}

// fgbio FilterBam defaults.
const (
	defaultRemoveDuplicates          = true
	defaultRemoveUnmappedReads       = true
	defaultMinMapQ                   = 1
	defaultRemoveSingleEndMappings   = false
	defaultRemoveSecondaryAlignments = true
)

// DefaultFilterRequest returns a request with every default filled in.
func DefaultFilterRequest() FilterRequest {
	return FilterRequest{
		RemoveDuplicates:          defaultRemoveDuplicates,
		RemoveUnmappedReads:       defaultRemoveUnmappedReads,
		MinMapQ:                   defaultMinMapQ,
		RemoveSingleEndMappings:   defaultRemoveSingleEndMappings,
		RemoveSecondaryAlignments: defaultRemoveSecondaryAlignments,
	}
}

// Normalize trims path fields and canonicalizes the sort order.
// It returns the first field error encountered.
func (r *SortRequest) Normalize() error {
	r.InputBAM = strings.TrimSpace(r.InputBAM)
	r.OutputBAM = strings.TrimSpace(r.OutputBAM)
	order, err := ParseSortOrder(string(r.SortOrder))
	if err != nil {
		return err
	}
	r.SortOrder = order
	r.TempDir = trimmed(r.TempDir)
	return nil
}

// Validate checks field-level rules. It does not touch the filesystem.
func (r SortRequest) Validate() error {
	if err := requirePath("input_bam", r.InputBAM); err != nil {
		return err
	}
	if err := requirePath("output_bam", r.OutputBAM); err != nil {
		return err
	}
	if _, err := ParseSortOrder(string(r.SortOrder)); err != nil {
		return err
	}
	if err := optionalPath("temp_dir", r.TempDir); err != nil {
		return err
	}
	if samePath(r.OutputBAM, r.InputBAM) {
		return invalid("output_bam", "must differ from input_bam")
	}
	if r.MaxRecordsInRAM != nil && *r.MaxRecordsInRAM <= 0 {
		return invalid("max_records_in_ram", "must be greater than 0, got %d", *r.MaxRecordsInRAM)
	}
	return nil
}

// Normalize trims path fields.
func (r *FilterRequest) Normalize() error {
	r.InputBAM = strings.TrimSpace(r.InputBAM)
	r.OutputBAM = strings.TrimSpace(r.OutputBAM)
	r.Rejects = trimmed(r.Rejects)
	r.Intervals = trimmed(r.Intervals)
	return nil
}

// Validate checks field-level rules. It does not touch the filesystem.
func (r FilterRequest) Validate() error {
	if err := requirePath("input_bam", r.InputBAM); err != nil {
		return err
	}
	if err := requirePath("output_bam", r.OutputBAM); err != nil {
		return err
	}
	if err := optionalPath("rejects", r.Rejects); err != nil {
		return err
	}
	if err := optionalPath("intervals", r.Intervals); err != nil {
		return err
	}
	if r.MinMapQ < 0 {
		return invalid("min_map_q", "must not be negative, got %d", r.MinMapQ)
	}
	for _, b := range []struct {
		field string
		value *int
	}{
		{"min_insert_size", r.MinInsertSize},
		{"max_insert_size", r.MaxInsertSize},
		{"min_mapped_bases", r.MinMappedBases},
	} {
		if b.value != nil && *b.value < 0 {
			return invalid(b.field, "must not be negative, got %d", *b.value)
		}
	}
	if r.MinInsertSize != nil && r.MaxInsertSize != nil && *r.MinInsertSize > *r.MaxInsertSize {
		return invalid("min_insert_size", "%d exceeds max_insert_size %d", *r.MinInsertSize, *r.MaxInsertSize)
	}
	if samePath(r.OutputBAM, r.InputBAM) {
		return invalid("output_bam", "must differ from input_bam")
	}
	if r.Rejects != nil && samePath(*r.Rejects, r.OutputBAM) {
		return invalid("rejects", "must differ from output_bam")
	}
	if r.Rejects != nil && samePath(*r.Rejects, r.InputBAM) {
		return invalid("rejects", "must differ from input_bam")
	}
	return nil
}

// FiltersApplied summarizes the effective filters for the response.
func (r FilterRequest) FiltersApplied() map[string]any {
	applied := map[string]any{
		"remove_duplicates":           r.RemoveDuplicates,
		"remove_unmapped_reads":       r.RemoveUnmappedReads,
		"min_map_q":                   r.MinMapQ,
		"remove_single_end_mappings":  r.RemoveSingleEndMappings,
		"remove_secondary_alignments": r.RemoveSecondaryAlignments,
	}
	if r.MinInsertSize != nil {
		applied["min_insert_size"] = *r.MinInsertSize
	}
	if r.MaxInsertSize != nil {
		applied["max_insert_size"] = *r.MaxInsertSize
	}
	if r.MinMappedBases != nil {
		applied["min_mapped_bases"] = *r.MinMappedBases
	}
	if r.Intervals != nil {
		applied["intervals_filter"] = true
	}
	return applied
}

func requirePath(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "path must not be empty")
	}
	return nil
}

func optionalPath(field string, value *string) error {
	if value != nil && strings.TrimSpace(*value) == "" {
		return invalid(field, "path must not be empty when provided")
	}
	return nil
}

// samePath compares two paths after lexical cleaning. Symlinks and
// relative-versus-absolute spellings are not resolved.
func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// trimmed returns a trimmed copy so normalizing never writes through a
// pointer the caller still holds.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	return &t
}
