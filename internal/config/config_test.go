package config

import (
	"os"
	"testing"
)

// TestParseArgs drives ParseArgs through os.Args the way a real process
// invocation would.
func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Options
		wantErr bool
	}{
		{
			name: "bare source path",
			args: []string{"hdlc", "design.sus"},
			want: Options{Src: "design.sus", Threads: 1, Codegen: "verilog"},
		},
		{
			name: "output and thread count",
			args: []string{"hdlc", "-o", "out.v", "-t", "4", "design.sus"},
			want: Options{Src: "design.sus", Out: "out.v", Threads: 4, Codegen: "verilog"},
		},
		{
			name: "verbose and cache path",
			args: []string{"hdlc", "-vb", "-cache", "/tmp/hdlc-cache", "design.sus"},
			want: Options{Src: "design.sus", Threads: 1, Verbose: true, Cache: "/tmp/hdlc-cache", Codegen: "verilog"},
		},
		{
			name: "codegen backend selection",
			args: []string{"hdlc", "-codegen", "vhdl", "design.sus"},
			want: Options{Src: "design.sus", Threads: 1, Codegen: "vhdl"},
		},
		{
			name:    "unknown flag",
			args:    []string{"hdlc", "-bogus"},
			wantErr: true,
		},
		{
			name:    "thread count out of range",
			args:    []string{"hdlc", "-t", "0", "design.sus"},
			wantErr: true,
		},
		{
			name:    "unknown codegen backend",
			args:    []string{"hdlc", "-codegen", "fpga-bitstream", "design.sus"},
			wantErr: true,
		},
	}

	savedArgs := os.Args
	defer func() { os.Args = savedArgs }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			got, err := ParseArgs()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got options %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseArgsNoArguments(t *testing.T) {
	savedArgs := os.Args
	defer func() { os.Args = savedArgs }()

	os.Args = []string{"hdlc"}
	opt, err := ParseArgs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Src != "" {
		t.Fatalf("expected no source path, got %q", opt.Src)
	}
}
