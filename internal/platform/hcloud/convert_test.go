package hcloud

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/compute"
)

func TestStateOf(t *testing.T) {
	tests := []struct {
		status hcloud.ServerStatus
		want   compute.InstanceState
	}{
		{hcloud.ServerStatusInitializing, compute.StatePending},
		{hcloud.ServerStatusStarting, compute.StatePending},
		{hcloud.ServerStatusRunning, compute.StateRunning},
		{hcloud.ServerStatusStopping, compute.StateStopping},
		{hcloud.ServerStatusOff, compute.StateStopped},
		{hcloud.ServerStatusDeleting, compute.StateShuttingDown},
	}
	for _, tt := range tests {
		if got := stateOf(tt.status); got != tt.want {
			t.Errorf("stateOf(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestServerName(t *testing.T) {
	tests := []struct {
		name, reservation, want string
	}{
		{"web", "", "web"},
		{"Dep-Web_1", "", "dep-web-1"},
		{"__", "abc", "instance-abc"},
		{"", "6f1c", "instance-6f1c"},
	}
	for _, tt := range tests {
		if got := serverName(tt.name, tt.reservation); got != tt.want {
			t.Errorf("serverName(%q, %q) = %q, want %q", tt.name, tt.reservation, got, tt.want)
		}
	}

	long := serverName(fmt.Sprintf("%070d", 0), "")
	if len(long) != maxLabelLength {
		t.Errorf("expected name capped at %d, got %d", maxLabelLength, len(long))
	}
}

func TestLabels(t *testing.T) {
	if got := labelValue("web 1/2"); got != "web_1_2" {
		t.Errorf("labelValue = %q", got)
	}
	if got := labelValue("-edge-"); got != "edge" {
		t.Errorf("labelValue = %q", got)
	}

	labels := labelsFor(map[string]string{"Name": "web", "bad key!": "x", "": "dropped"})
	if labels["Name"] != "web" || labels["bad_key"] != "x" {
		t.Errorf("unexpected labels %v", labels)
	}
	if len(labels) != 2 {
		t.Errorf("expected empty key to be dropped, got %v", labels)
	}

	if got := buildLabelSelector(map[string]string{"b": "2", "a": "1"}); got != "a=1,b=2" {
		t.Errorf("buildLabelSelector = %q", got)
	}
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{
			name:       "not found",
			err:        hcloud.Error{Code: hcloud.ErrorCodeNotFound, Message: "gone"},
			wantCode:   compute.CodeInstanceNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid input",
			err:        hcloud.Error{Code: hcloud.ErrorCodeInvalidInput, Message: "bad"},
			wantCode:   "InvalidParameterValue",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "locked",
			err:        fmt.Errorf("wrapped: %w", hcloud.Error{Code: hcloud.ErrorCodeLocked, Message: "busy"}),
			wantCode:   string(hcloud.ErrorCodeLocked),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "service error",
			err:        hcloud.Error{Code: hcloud.ErrorCodeServiceError, Message: "oops"},
			wantCode:   string(hcloud.ErrorCodeServiceError),
			wantStatus: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *compute.APIError
			if !errors.As(translateError(tt.err, compute.CodeInstanceNotFound), &apiErr) {
				t.Fatalf("expected APIError")
			}
			if apiErr.Code != tt.wantCode || apiErr.StatusCode != tt.wantStatus {
				t.Errorf("got %s/%d, want %s/%d", apiErr.Code, apiErr.StatusCode, tt.wantCode, tt.wantStatus)
			}
		})
	}

	plain := errors.New("dial tcp: refused")
	if translateError(plain, compute.CodeInstanceNotFound) != plain {
		t.Error("expected non-API errors to pass through")
	}
	if translateError(nil, compute.CodeInstanceNotFound) != nil {
		t.Error("expected nil")
	}
}
