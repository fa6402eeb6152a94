package duckdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	useSSL := false

	tests := []struct {
		name    string
		input   map[string]any
		want    *Params
		wantErr bool
	}{
		{name: "nil", input: nil, want: &Params{}},
		{
			name: "outputs on object storage",
			input: map[string]any{
				"extensions": []any{"httpfs"},
				"settings":   map[string]any{"memory_limit": "2GB", "threads": 4},
				"secrets": []any{
					map[string]any{
						"type":     "s3",
						"provider": "credential_chain",
						"region":   "eu-west-1",
						"scope":    []any{"s3://dq-outputs"},
					},
				},
			},
			want: &Params{
				Extensions: []string{"httpfs"},
				Settings:   map[string]string{"memory_limit": "2GB", "threads": "4"},
				Secrets: []SecretConfig{{
					Type:     "s3",
					Provider: "credential_chain",
					Region:   "eu-west-1",
					Scope:    []any{"s3://dq-outputs"},
				}},
			},
		},
		{
			name: "minio endpoint",
			input: map[string]any{
				"secrets": []any{map[string]any{
					"type":      "s3",
					"endpoint":  "localhost:9000",
					"url_style": "path",
					"use_ssl":   "false",
				}},
			},
			want: &Params{
				Secrets: []SecretConfig{{Type: "s3", Endpoint: "localhost:9000", URLStyle: "path", UseSSL: &useSSL}},
			},
		},
		{name: "unknown key", input: map[string]any{"extension": "httpfs"}, wantErr: true},
		{name: "wrong shape", input: map[string]any{"secrets": "s3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid duckdb params")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildCreateSecretSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  SecretConfig
		want string
	}{
		{
			name: "type only",
			cfg:  SecretConfig{Type: "s3"},
			want: "CREATE SECRET (\n    TYPE s3\n)",
		},
		{
			name: "scoped credential chain",
			cfg:  SecretConfig{Type: "s3", Provider: "credential_chain", Scope: "s3://dq-outputs"},
			want: "CREATE SECRET (\n    TYPE s3,\n    PROVIDER credential_chain,\n    SCOPE 's3://dq-outputs'\n)",
		},
		{
			name: "several scopes",
			cfg:  SecretConfig{Type: "gcs", Scope: []string{"gs://a", "gs://b"}},
			want: "CREATE SECRET (\n    TYPE gcs,\n    SCOPE ('gs://a', 'gs://b')\n)",
		},
		{
			name: "quotes are escaped",
			cfg:  SecretConfig{Type: "s3", KeyID: "k", Secret: "it's"},
			want: "CREATE SECRET (\n    TYPE s3,\n    KEY_ID 'k',\n    SECRET 'it''s'\n)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildCreateSecretSQL(tt.cfg))
		})
	}
}
