package cli

import (
	"testing"

	"github.com/ardnew/molang/log"
)

func TestLogConfig_Scan(t *testing.T) {
	saved := log.Default()
	t.Cleanup(func() { log.SetDefault(saved) })

	tests := []struct {
		name       string
		args       []string
		wantLevel  logLevel
		wantFormat logFormat
		wantLayout string
		wantPretty bool
		wantCaller bool
	}{
		{
			name:       "assigned",
			args:       []string{"eval", "--log-level=trace", "--log-format=text", "1"},
			wantLevel:  "trace",
			wantFormat: "text",
			wantPretty: true,
		},
		{
			name:       "separate operands",
			args:       []string{"--log-level", "debug", "--log-time-layout", "none", "eval"},
			wantLevel:  "debug",
			wantLayout: "none",
			wantPretty: true,
		},
		{
			name:       "operand missing",
			args:       []string{"--log-level", "--log-caller"},
			wantPretty: true,
			wantCaller: true,
		},
		{
			name: "negated booleans",
			args: []string{"--no-log-pretty", "--log-caller=false"},
		},
		{
			name:       "negated with value",
			args:       []string{"--no-log-pretty=false", "--no-log-caller=false"},
			wantPretty: true,
			wantCaller: true,
		},
		{
			name:       "invalid boolean ignored",
			args:       []string{"--log-caller=maybe"},
			wantPretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.wantLevel || f.Format != tt.wantFormat ||
				f.TimeLayout != tt.wantLayout || f.Pretty != tt.wantPretty ||
				f.Caller != tt.wantCaller {
				t.Errorf("scan(%q) = %+v", tt.args, f)
			}
		})
	}
}

func TestLogConfig_ScanAppliesLevel(t *testing.T) {
	saved := log.Default()
	t.Cleanup(func() { log.SetDefault(saved) })

	var f logConfig
	f.scan([]string{"--log-level=warn"})

	if got := log.Default().Level(); got != log.LevelWarn {
		t.Errorf("default logger level = %v, want warn", got)
	}
}

func TestLogConfig_Vars(t *testing.T) {
	t.Parallel()

	vars := (&logConfig{}).vars()

	if vars["logLevelEnum"] != "trace,debug,info,warn,error" {
		t.Errorf("logLevelEnum = %q", vars["logLevelEnum"])
	}

	if vars["logFormat"] != log.DefaultFormat.String() {
		t.Errorf("logFormat = %q", vars["logFormat"])
	}
}
