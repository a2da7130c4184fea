package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty driver returns ErrDriverEmpty",
			config:  Config{Driver: "", DSN: "file.db"},
			wantErr: ErrDriverEmpty,
		},
		{
			name:    "unknown driver returns ErrDriverUnknown",
			config:  Config{Driver: "oracle", DSN: "x"},
			wantErr: ErrDriverUnknown,
		},
		{
			name:    "empty dsn returns ErrDSNEmpty",
			config:  Config{Driver: "postgres", DSN: ""},
			wantErr: ErrDSNEmpty,
		},
		{
			name:    "valid sqlite config",
			config:  Config{Driver: "sqlite", DSN: "/tmp/test.db"},
			wantErr: nil,
		},
		{
			name:    "valid mysql config",
			config:  Config{Driver: "mysql", DSN: "root@tcp(localhost)/test"},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
