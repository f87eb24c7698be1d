package fgbio_test

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/flemzord/fgbio-mcp/internal/fgbio"
	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func TestBuildSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  fgbio.SortRequest
		want []string
	}{
		{
			name: "default order is explicit",
			req: func() fgbio.SortRequest {
				r := fgbio.DefaultSortRequest()
				r.InputBAM, r.OutputBAM = "in.bam", "out.bam"
				return r
			}(),
			want: []string{"SortBam", "--input=in.bam", "--output=out.bam", "--sort-order=Coordinate"},
		},
		{
			name: "zero value order defaults to coordinate",
			req:  fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam"},
			want: []string{"SortBam", "--input=in.bam", "--output=out.bam", "--sort-order=Coordinate"},
		},
		{
			name: "queryname",
			req:  fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam", SortOrder: fgbio.SortQueryname},
			want: []string{"SortBam", "--input=in.bam", "--output=out.bam", "--sort-order=Queryname"},
		},
		{
			name: "random",
			req:  fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam", SortOrder: fgbio.SortRandom},
			want: []string{"SortBam", "--input=in.bam", "--output=out.bam", "--sort-order=Random"},
		},
		{
			name: "unsorted with ram limit",
			req: fgbio.SortRequest{
				InputBAM: "in.bam", OutputBAM: "out.bam", SortOrder: fgbio.SortUnsorted,
				MaxRecordsInRAM: ptr(500000),
			},
			want: []string{"SortBam", "--input=in.bam", "--output=out.bam", "--sort-order=Unsorted", "--max-records-in-ram=500000"},
		},
		{
			name: "temp dir is a global option",
			req: fgbio.SortRequest{
				InputBAM: " in.bam ", OutputBAM: "out.bam", SortOrder: "QUERYNAME",
				TempDir: ptr("/scratch"),
			},
			want: []string{"--tmp-dir=/scratch", "SortBam", "--input=in.bam", "--output=out.bam", "--sort-order=Queryname"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec, err := fgbio.BuildSort(tt.req)
			if err != nil {
				t.Fatalf("BuildSort() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, spec.Args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildSort_FixedPositions(t *testing.T) {
	t.Parallel()

	for _, order := range fgbio.SortOrders {
		spec, err := fgbio.BuildSort(fgbio.SortRequest{
			InputBAM: "/data/in.bam", OutputBAM: "/data/out.bam", SortOrder: order,
			MaxRecordsInRAM: ptr(10),
		})
		if err != nil {
			t.Fatalf("%s: %v", order, err)
		}
		if spec.Args[0] != "SortBam" || spec.Args[1] != "--input=/data/in.bam" || spec.Args[2] != "--output=/data/out.bam" {
			t.Errorf("%s: paths not in fixed position: %v", order, spec.Args)
		}
		if got := spec.Args[3]; !strings.EqualFold(got, "--sort-order="+string(order)) {
			t.Errorf("%s: sort order flag = %q", order, got)
		}
	}
}

func TestBuildSort_TempDirEnv(t *testing.T) {
	t.Parallel()

	spec, err := fgbio.BuildSort(fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam", TempDir: ptr("/scratch")})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(spec.Env, "TMPDIR=/scratch") {
		t.Errorf("Env = %v, want TMPDIR override", spec.Env)
	}
	if spec.Dir != "" {
		t.Errorf("Dir = %q, want empty", spec.Dir)
	}
}

func TestBuildSort_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		req   fgbio.SortRequest
		field string
	}{
		{"empty input", fgbio.SortRequest{OutputBAM: "out.bam"}, "input_bam"},
		{"blank output", fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "  "}, "output_bam"},
		{"bad order", fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam", SortOrder: "genomic"}, "sort_order"},
		{"blank temp dir", fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam", TempDir: ptr(" ")}, "temp_dir"},
		{"zero ram", fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam", MaxRecordsInRAM: ptr(0)}, "max_records_in_ram"},
		{"negative ram", fgbio.SortRequest{InputBAM: "in.bam", OutputBAM: "out.bam", MaxRecordsInRAM: ptr(-5)}, "max_records_in_ram"},
		{"output equals input", fgbio.SortRequest{InputBAM: "data/in.bam", OutputBAM: "data/./in.bam"}, "output_bam"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := fgbio.BuildSort(tt.req)
			assertFieldError(t, err, tt.field)
		})
	}
}

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	base := func(mod func(*fgbio.FilterRequest)) fgbio.FilterRequest {
		r := fgbio.DefaultFilterRequest()
		r.InputBAM, r.OutputBAM = "in.bam", "out.bam"
		if mod != nil {
			mod(&r)
		}
		return r
	}

	tests := []struct {
		name string
		req  fgbio.FilterRequest
		want []string
	}{
		{
			name: "defaults emit no optional flags",
			req:  base(nil),
			want: []string{"FilterBam", "--input=in.bam", "--output=out.bam"},
		},
		{
			name: "mapq and both insert bounds",
			req: base(func(r *fgbio.FilterRequest) {
				r.MinMapQ = 20
				r.MinInsertSize = ptr(100)
				r.MaxInsertSize = ptr(500)
			}),
			want: []string{"FilterBam", "--input=in.bam", "--output=out.bam", "--min-map-q=20", "--min-insert-size=100", "--max-insert-size=500"},
		},
		{
			name: "only min insert size",
			req:  base(func(r *fgbio.FilterRequest) { r.MinInsertSize = ptr(50) }),
			want: []string{"FilterBam", "--input=in.bam", "--output=out.bam", "--min-insert-size=50"},
		},
		{
			name: "only max insert size",
			req:  base(func(r *fgbio.FilterRequest) { r.MaxInsertSize = ptr(800) }),
			want: []string{"FilterBam", "--input=in.bam", "--output=out.bam", "--max-insert-size=800"},
		},
		{
			name: "zero mapq overrides default",
			req:  base(func(r *fgbio.FilterRequest) { r.MinMapQ = 0 }),
			want: []string{"FilterBam", "--input=in.bam", "--output=out.bam", "--min-map-q=0"},
		},
		{
			name: "boolean overrides",
			req: base(func(r *fgbio.FilterRequest) {
				r.RemoveDuplicates = false
				r.RemoveUnmappedReads = false
				r.RemoveSingleEndMappings = true
				r.RemoveSecondaryAlignments = false
			}),
			want: []string{
				"FilterBam", "--input=in.bam", "--output=out.bam",
				"--remove-duplicates=false",
				"--remove-unmapped-reads=false",
				"--remove-single-end-mappings=true",
				"--remove-secondary-alignments=false",
			},
		},
		{
			name: "files and mapped bases",
			req: base(func(r *fgbio.FilterRequest) {
				r.Rejects = ptr("rejects.bam")
				r.Intervals = ptr(" targets.interval_list ")
				r.MinMappedBases = ptr(30)
			}),
			want: []string{
				"FilterBam", "--input=in.bam", "--output=out.bam",
				"--rejects=rejects.bam", "--intervals=targets.interval_list", "--min-mapped-bases=30",
			},
		},
		{
			name: "equal bounds are allowed",
			req: base(func(r *fgbio.FilterRequest) {
				r.MinInsertSize = ptr(300)
				r.MaxInsertSize = ptr(300)
			}),
			want: []string{"FilterBam", "--input=in.bam", "--output=out.bam", "--min-insert-size=300", "--max-insert-size=300"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			spec, err := fgbio.BuildFilter(tt.req)
			if err != nil {
				t.Fatalf("BuildFilter() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, spec.Args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildFilter_MinInsertOnlyNeverEmitsMax(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 100, 1 << 20} {
		req := fgbio.DefaultFilterRequest()
		req.InputBAM, req.OutputBAM = "in.bam", "out.bam"
		req.MinInsertSize = ptr(n)

		spec, err := fgbio.BuildFilter(req)
		if err != nil {
			t.Fatalf("min=%d: %v", n, err)
		}
		for _, a := range spec.Args {
			if strings.HasPrefix(a, "--max-insert-size") {
				t.Errorf("min=%d: unexpected %q in %v", n, a, spec.Args)
			}
		}
	}
}

func TestBuildFilter_ScenarioExcludesMappedBases(t *testing.T) {
	t.Parallel()

	req := fgbio.DefaultFilterRequest()
	req.InputBAM, req.OutputBAM = "in.bam", "out.bam"
	req.MinMapQ = 20
	req.MinInsertSize = ptr(100)
	req.MaxInsertSize = ptr(500)

	spec, err := fgbio.BuildFilter(req)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"--min-map-q=20", "--min-insert-size=100", "--max-insert-size=500"} {
		if !slices.Contains(spec.Args, want) {
			t.Errorf("missing %q in %v", want, spec.Args)
		}
	}
	for _, a := range spec.Args {
		if strings.Contains(a, "mapped-bases") {
			t.Errorf("unexpected mapped-bases flag %q", a)
		}
	}
}

func TestBuildFilter_Deterministic(t *testing.T) {
	t.Parallel()

	req := fgbio.DefaultFilterRequest()
	req.InputBAM, req.OutputBAM = "in.bam", "out.bam"
	req.Rejects = ptr("rej.bam")
	req.RemoveSingleEndMappings = true
	req.MinMappedBases = ptr(25)
	req.MaxInsertSize = ptr(1000)

	first, err := fgbio.BuildFilter(req)
	if err != nil {
		t.Fatal(err)
	}
	for range 20 {
		again, err := fgbio.BuildFilter(req)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("spec changed between builds (-first +again):\n%s", diff)
		}
	}
}

func TestBuildFilter_Invalid(t *testing.T) {
	t.Parallel()

	base := func(mod func(*fgbio.FilterRequest)) fgbio.FilterRequest {
		r := fgbio.DefaultFilterRequest()
		r.InputBAM, r.OutputBAM = "in.bam", "out.bam"
		mod(&r)
		return r
	}

	tests := []struct {
		name  string
		req   fgbio.FilterRequest
		field string
	}{
		{"empty input", base(func(r *fgbio.FilterRequest) { r.InputBAM = "" }), "input_bam"},
		{"empty output", base(func(r *fgbio.FilterRequest) { r.OutputBAM = "\t" }), "output_bam"},
		{"negative mapq", base(func(r *fgbio.FilterRequest) { r.MinMapQ = -1 }), "min_map_q"},
		{"negative min insert", base(func(r *fgbio.FilterRequest) { r.MinInsertSize = ptr(-10) }), "min_insert_size"},
		{"negative max insert", base(func(r *fgbio.FilterRequest) { r.MaxInsertSize = ptr(-1) }), "max_insert_size"},
		{"negative mapped bases", base(func(r *fgbio.FilterRequest) { r.MinMappedBases = ptr(-3) }), "min_mapped_bases"},
		{"min above max", base(func(r *fgbio.FilterRequest) {
			r.MinInsertSize = ptr(600)
			r.MaxInsertSize = ptr(500)
		}), "min_insert_size"},
		{"blank rejects", base(func(r *fgbio.FilterRequest) { r.Rejects = ptr("") }), "rejects"},
		{"blank intervals", base(func(r *fgbio.FilterRequest) { r.Intervals = ptr(" ") }), "intervals"},
		{"rejects equals output", base(func(r *fgbio.FilterRequest) { r.Rejects = ptr("out.bam") }), "rejects"},
		{"rejects equals cleaned output", base(func(r *fgbio.FilterRequest) { r.Rejects = ptr("./out.bam") }), "rejects"},
		{"rejects equals input", base(func(r *fgbio.FilterRequest) { r.Rejects = ptr("in.bam") }), "rejects"},
		{"output equals input", base(func(r *fgbio.FilterRequest) { r.OutputBAM = "sub/../in.bam" }), "output_bam"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := fgbio.BuildFilter(tt.req)
			assertFieldError(t, err, tt.field)
		})
	}
}

func TestBuildFilter_DoesNotMutateRequest(t *testing.T) {
	t.Parallel()

	intervals := " targets.bed "
	req := fgbio.DefaultFilterRequest()
	req.InputBAM, req.OutputBAM = "in.bam", "out.bam"
	req.Intervals = &intervals

	if _, err := fgbio.BuildFilter(req); err != nil {
		t.Fatal(err)
	}
	if intervals != " targets.bed " {
		t.Errorf("caller's string was modified: %q", intervals)
	}
}

func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	if !errors.Is(err, fgbio.ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	var fe *fgbio.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Field != field {
		t.Errorf("field = %q, want %q", fe.Field, field)
	}
}
