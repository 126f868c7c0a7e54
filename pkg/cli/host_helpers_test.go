package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateHostURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		host       string
		wantErr    bool
		errContain string
	}{
		{name: "http origin", host: "http://localhost:8080"},
		{name: "https origin", host: "https://synth.example.com"},
		{name: "trailing slash", host: "http://localhost:8080/"},
		{name: "surrounding whitespace", host: "  http://localhost:8080  "},
		{
			name:       "empty",
			host:       "",
			wantErr:    true,
			errContain: "cannot be empty",
		},
		{
			// url.Parse reads "localhost" as the scheme here, not the host.
			name:       "missing scheme",
			host:       "localhost:8080",
			wantErr:    true,
			errContain: "scheme must be http or https",
		},
		{
			name:       "unsupported scheme",
			host:       "ftp://localhost:8080",
			wantErr:    true,
			errContain: "scheme must be http or https",
		},
		{
			name:       "scheme without host",
			host:       "http://",
			wantErr:    true,
			errContain: "missing host",
		},
		{
			name:       "path component",
			host:       "http://localhost:8080/api",
			wantErr:    true,
			errContain: "must not include a path",
		},
		{
			name:       "query component",
			host:       "http://localhost:8080?env=dev",
			wantErr:    true,
			errContain: "must not include query or fragment",
		},
		{
			name:       "fragment component",
			host:       "http://localhost:8080#prod",
			wantErr:    true,
			errContain: "must not include query or fragment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateHostURL(tt.host)
			if tt.wantErr {
				assert.ErrorContains(t, err, tt.errContain)
				return
			}
			assert.NoError(t, err)
		})
	}
}
