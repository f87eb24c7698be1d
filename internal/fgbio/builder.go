package fgbio

import (
	"strconv"

	"github.com/flemzord/fgbio-mcp/internal/runner"
)

// fgbio tool names.
const (
	ToolSortBam   = "SortBam"
	ToolFilterBam = "FilterBam"
)

// BuildSort turns a SortRequest into a runner.Spec. The same request always
// yields the same argument vector:
//
//	[--tmp-dir=D] SortBam --input=I --output=O --sort-order=S [--max-records-in-ram=N]
//
// The sort order is always explicit, even when it is the default.
func BuildSort(req SortRequest) (runner.Spec, error) {
	if err := req.Normalize(); err != nil {
		return runner.Spec{}, err
	}
	if err := req.Validate(); err != nil {
		return runner.Spec{}, err
	}

	var a argv
	spec := runner.Spec{}
	if req.TempDir != nil {
		a.str("tmp-dir", *req.TempDir)
		spec.Env = tempDirEnv(*req.TempDir)
	}
	a.tool(ToolSortBam)
	a.str("input", req.InputBAM)
	a.str("output", req.OutputBAM)
	a.str("sort-order", req.SortOrder.flag())
	a.optInt("max-records-in-ram", req.MaxRecordsInRAM)

	spec.Args = a.args
	return spec, nil
}

// BuildFilter turns a FilterRequest into a runner.Spec:
//
//	FilterBam --input=I --output=O [--rejects=R] [--intervals=L]
//	  [boolean overrides] [--min-map-q=Q] [--min-insert-size=N]
//	  [--max-insert-size=N] [--min-mapped-bases=N]
//
// Booleans and --min-map-q are emitted only when they differ from fgbio's
// defaults; range bounds are emitted independently of each other.
func BuildFilter(req FilterRequest) (runner.Spec, error) {
	if err := req.Normalize(); err != nil {
		return runner.Spec{}, err
	}
	if err := req.Validate(); err != nil {
		return runner.Spec{}, err
	}

	var a argv
	a.tool(ToolFilterBam)
	a.str("input", req.InputBAM)
	a.str("output", req.OutputBAM)
	a.optStr("rejects", req.Rejects)
	a.optStr("intervals", req.Intervals)
	a.override("remove-duplicates", req.RemoveDuplicates, defaultRemoveDuplicates)
	a.override("remove-unmapped-reads", req.RemoveUnmappedReads, defaultRemoveUnmappedReads)
	a.override("remove-single-end-mappings", req.RemoveSingleEndMappings, defaultRemoveSingleEndMappings)
	a.override("remove-secondary-alignments", req.RemoveSecondaryAlignments, defaultRemoveSecondaryAlignments)
	if req.MinMapQ != defaultMinMapQ {
		a.str("min-map-q", strconv.Itoa(req.MinMapQ))
	}
	a.optInt("min-insert-size", req.MinInsertSize)
	a.optInt("max-insert-size", req.MaxInsertSize)
	a.optInt("min-mapped-bases", req.MinMappedBases)

	return runner.Spec{Args: a.args}, nil
}

// tempDirEnv points TMPDIR at dir so the launcher script and anything it
// spawns use the same scratch space as fgbio itself.
func tempDirEnv(dir string) []string {
	return []string{"TMPDIR=" + dir}
}

// argv accumulates --name=value arguments. The single-token form keeps
// values starting with "-" from being read as flags.
type argv struct {
	args []string
}

func (a *argv) tool(name string) {
	a.args = append(a.args, name)
}

func (a *argv) str(name, value string) {
	a.args = append(a.args, "--"+name+"="+value)
}

func (a *argv) optStr(name string, value *string) {
	if value != nil {
		a.str(name, *value)
	}
}

func (a *argv) optInt(name string, value *int) {
	if value != nil {
		a.str(name, strconv.Itoa(*value))
	}
}

func (a *argv) override(name string, value, toolDefault bool) {
	if value != toolDefault {
		a.str(name, strconv.FormatBool(value))
	}
}
