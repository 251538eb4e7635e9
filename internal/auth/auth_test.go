package auth

import (
	"errors"
	"testing"

	"github.com/danmuck/ircbot/internal/testutil/testlog"
)

func TestOwnerValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		owner   string
		input   string
		wantErr error
	}{
		{name: "empty owner denied", owner: "", input: "master", wantErr: ErrUnauthorized},
		{name: "empty sender denied", owner: "master", input: "", wantErr: ErrUnauthorized},
		{name: "other sender denied", owner: "master", input: "mallory", wantErr: ErrUnauthorized},
		{name: "owner accepted", owner: "master", input: "master", wantErr: nil},
		{name: "sigil ignored", owner: "@master", input: "master", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (Owner{Identity: tc.owner}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFuncValidatorAndAllowAll(t *testing.T) {
	testlog.Start(t)
	validator := FuncValidator(func(identity string) error {
		if identity != "ok" {
			return ErrUnauthorized
		}
		return nil
	})
	if err := validator.Validate("ok"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := validator.Validate("bad"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := (AllowAll{}).Validate(""); err != nil {
		t.Fatalf("expected AllowAll to accept, got %v", err)
	}
}
