package serverutils_test

import (
	"testing"

	"chat-relay-be/internal/pkg/serverutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "standard header", header: "Bearer abc123", want: "abc123"},
		{name: "lowercase scheme", header: "bearer abc123", want: "abc123"},
		{name: "extra whitespace around token", header: "Bearer   abc123  ", want: "abc123"},
		{name: "empty header", header: "", wantErr: true},
		{name: "scheme only", header: "Bearer ", wantErr: true},
		{name: "wrong scheme", header: "Basic abc123", wantErr: true},
		{name: "no scheme", header: "abc123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := serverutils.ExtractBearerToken(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, serverutils.ErrMalformedAuthHeader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, token)
		})
	}
}
