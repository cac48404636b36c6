package base

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessLogLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    hclog.Level
		wantErr bool
	}{
		{raw: "", want: hclog.Off},
		{raw: "trace", want: hclog.Trace},
		{raw: "DEBUG", want: hclog.Debug},
		{raw: " info ", want: hclog.Info},
		{raw: "warning", want: hclog.Warn},
		{raw: "err", want: hclog.Error},
		{raw: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			got, err := ProcessLogLevel(tt.raw)
			if tt.wantErr {
				require.Error(err)
				assert.Contains(err.Error(), tt.raw)
				return
			}
			require.NoError(err)
			assert.Equal(tt.want, got)
		})
	}
}
