package bamtool

import (
	"context"
	"encoding/json"

	"github.com/flemzord/fgbio-mcp/internal/fgbio"
	"github.com/flemzord/fgbio-mcp/internal/result"
	"github.com/flemzord/fgbio-mcp/internal/tool"
)

// Tools returns the operations served by s, ready for tool.Registry.
func (s *Service) Tools() []tool.Tool {
	return []tool.Tool{
		{
			Name:        OpSortBam,
			Description: "Sort a BAM file with fgbio SortBam. Writes output_bam; the input is left untouched.",
			Params:      sortParams(),
			Scopes:      []tool.Scope{tool.ScopeReadWrite, tool.ScopeExec},
			Handler: func(ctx context.Context, args json.RawMessage) result.Response {
				req := fgbio.DefaultSortRequest()
				if err := decodeArgs(args, &req); err != nil {
					return s.reject(ctx, OpSortBam, err)
				}
				return s.SortBam(ctx, req)
			},
		},
		{
			Name:        OpFilterBam,
			Description: "Filter reads in a BAM file with fgbio FilterBam. Writes output_bam and, when requested, a rejects BAM.",
			Params:      filterParams(),
			Scopes:      []tool.Scope{tool.ScopeReadWrite, tool.ScopeExec},
			Handler: func(ctx context.Context, args json.RawMessage) result.Response {
				req := fgbio.DefaultFilterRequest()
				if err := decodeArgs(args, &req); err != nil {
					return s.reject(ctx, OpFilterBam, err)
				}
				return s.FilterBam(ctx, req)
			},
		},
	}
}

// Register adds every operation of s to r.
func (s *Service) Register(r *tool.Registry) error {
	for _, t := range s.Tools() {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

func sortParams() []tool.Param {
	orders := make([]string, len(fgbio.SortOrders))
	for i, o := range fgbio.SortOrders {
		orders[i] = string(o)
	}
	def := fgbio.DefaultSortRequest()
	return []tool.Param{
		{Name: "input_bam", Type: tool.ParamString, Required: true, Description: "Path to the input BAM file."},
		{Name: "output_bam", Type: tool.ParamString, Required: true, Description: "Path of the sorted BAM to write."},
		{Name: "sort_order", Type: tool.ParamString, Enum: orders, Default: string(def.SortOrder), Description: "Record order of the output."},
		{Name: "temp_dir", Type: tool.ParamString, Description: "Directory for temporary spill files."},
		{Name: "max_records_in_ram", Type: tool.ParamInteger, Positive: true, Description: "Records held in memory before spilling to disk."},
	}
}

func filterParams() []tool.Param {
	def := fgbio.DefaultFilterRequest()
	return []tool.Param{
		{Name: "input_bam", Type: tool.ParamString, Required: true, Description: "Path to the input BAM file."},
		{Name: "output_bam", Type: tool.ParamString, Required: true, Description: "Path of the filtered BAM to write."},
		{Name: "rejects", Type: tool.ParamString, Description: "Optional BAM receiving the reads that were filtered out."},
		{Name: "intervals", Type: tool.ParamString, Description: "Optional interval list; only reads overlapping it are kept."},
		{Name: "remove_duplicates", Type: tool.ParamBoolean, Default: def.RemoveDuplicates, Description: "Drop reads flagged as duplicates."},
		{Name: "remove_unmapped_reads", Type: tool.ParamBoolean, Default: def.RemoveUnmappedReads, Description: "Drop unmapped reads."},
		{Name: "min_map_q", Type: tool.ParamInteger, NonNegative: true, Default: def.MinMapQ, Description: "Minimum mapping quality to keep a mapped read."},
		{Name: "remove_single_end_mappings", Type: tool.ParamBoolean, Default: def.RemoveSingleEndMappings, Description: "Drop pairs where only one end is mapped."},
		{Name: "remove_secondary_alignments", Type: tool.ParamBoolean, Default: def.RemoveSecondaryAlignments, Description: "Drop secondary alignments."},
		{Name: "min_insert_size", Type: tool.ParamInteger, NonNegative: true, Description: "Minimum insert size of kept pairs."},
		{Name: "max_insert_size", Type: tool.ParamInteger, NonNegative: true, Description: "Maximum insert size of kept pairs."},
		{Name: "min_mapped_bases", Type: tool.ParamInteger, NonNegative: true, Description: "Minimum number of mapped bases per read."},
	}
}
