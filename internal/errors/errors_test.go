package errors

import (
	"errors"
	"fmt"
	"testing"
)

// -----------------------------------------------------------------------------
// MutationError Tests
// -----------------------------------------------------------------------------

func TestNewMutationError(t *testing.T) {
	cause := ErrPlanNotAddressed
	err := NewMutationError("cannot update step", cause)

	if err.message != "cannot update step" {
		t.Errorf("message = %q, want %q", err.message, "cannot update step")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
}

func TestMutationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *MutationError
		want string
	}{
		{
			name: "no context",
			err:  NewMutationError("cannot update step", nil),
			want: "mutation error: cannot update step",
		},
		{
			name: "with node",
			err:  NewMutationError("cannot update step", ErrNodeNotFound).WithNodeID("1.2"),
			want: "mutation error [node=1.2]: cannot update step: node not found",
		},
		{
			name: "with node and field",
			err:  NewMutationError("cannot update step", ErrPlanNotAddressed).WithNodeID("2A.1").WithField("pr"),
			want: "mutation error [node=2A.1, field=pr]: cannot update step: pr set without addressing plan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMutationError_Is(t *testing.T) {
	err := NewMutationError("cannot update step", ErrNodeNotFound)

	if !Is(err, &MutationError{}) {
		t.Error("Is(MutationError) = false, want true")
	}
	if !Is(err, ErrNodeNotFound) {
		t.Error("Is(ErrNodeNotFound) = false, want true")
	}
	if Is(err, ErrAmbiguousNode) {
		t.Error("Is(ErrAmbiguousNode) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// StoreError Tests
// -----------------------------------------------------------------------------

func TestStoreError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StoreError
		want string
	}{
		{
			name: "no context",
			err:  NewStoreError("fetch failed", nil),
			want: "store error: fetch failed",
		},
		{
			name: "with ref and op",
			err:  NewStoreError("fetch failed", ErrAuthRequired).WithRef("acme/app#12").WithOperation("fetch"),
			want: "store error [ref=acme/app#12, op=fetch]: fetch failed: authentication required",
		},
		{
			name: "with output",
			err:  NewStoreError("write failed", nil).WithOutput("boom"),
			want: "store error: write failed\noutput: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStoreError_Retryable(t *testing.T) {
	err := NewStoreError("write failed", nil).WithRetryable(true)
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
	if !IsRetryable(Wrap(err, "write objective")) {
		t.Error("IsRetryable() = false through Wrap, want true")
	}
	if IsRetryable(Wrap(NewStoreError("write failed", nil), "ctx")) {
		t.Error("IsRetryable() = true for non-retryable store error")
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError_Error(t *testing.T) {
	err := NewNotFoundError("node", "1.3")
	if got, want := err.Error(), "node '1.3' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	withCause := NewNotFoundError("roadmap", "acme/app#4").WithCause(ErrRoadmapNotFound)
	if !Is(withCause, ErrRoadmapNotFound) {
		t.Error("Is(ErrRoadmapNotFound) = false, want true")
	}
	if !Is(withCause, &NotFoundError{}) {
		t.Error("Is(NotFoundError) = false, want true")
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError("bad status"),
			want: "validation error: bad status",
		},
		{
			name: "field and value",
			err:  NewValidationError("bad status").WithField("status").WithValue("finished"),
			want: "validation error [field=status, value=finished]: bad status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("bad").WithCause(ErrInvalidStatus)
	if !Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if !Is(err, ErrInvalidStatus) {
		t.Error("ValidationError should match its cause")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "node sentinel", err: fmt.Errorf("update: %w", ErrNodeNotFound), want: true},
		{name: "roadmap sentinel", err: ErrRoadmapNotFound, want: true},
		{name: "issue sentinel", err: NewStoreError("fetch", ErrIssueNotFound), want: true},
		{name: "typed", err: NewNotFoundError("section", "Context"), want: true},
		{name: "other", err: ErrPlanNotAddressed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Wrap/Wrapf Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		want    string
	}{
		{
			name:    "nil error",
			err:     nil,
			message: "context",
			want:    "",
		},
		{
			name:    "wrap standard error",
			err:     errors.New("base error"),
			message: "failed to process",
			want:    "failed to process: base error",
		},
		{
			name:    "wrap mutation error",
			err:     NewMutationError("bad update", nil),
			message: "operation failed",
			want:    "operation failed: mutation error: bad update",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, tt.message)
			if tt.err == nil {
				if got != nil {
					t.Errorf("Wrap(nil) = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.want {
				t.Errorf("Wrap().Error() = %q, want %q", got.Error(), tt.want)
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	baseErr := errors.New("base error")
	err := Wrapf(baseErr, "failed to update %s", "1.2")

	want := "failed to update 1.2: base error"
	if err.Error() != want {
		t.Errorf("Wrapf().Error() = %q, want %q", err.Error(), want)
	}

	if got := Wrapf(nil, "test"); got != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", got)
	}
}

// -----------------------------------------------------------------------------
// Error Chain Tests
// -----------------------------------------------------------------------------

func TestErrorChain(t *testing.T) {
	storeErr := NewStoreError("fetch failed", ErrIssueNotFound).WithRef("acme/app#7")
	wrappedErr := Wrap(storeErr, "show objective")

	if !Is(wrappedErr, ErrIssueNotFound) {
		t.Error("Should find ErrIssueNotFound in chain")
	}

	var extracted *StoreError
	if !As(wrappedErr, &extracted) {
		t.Fatal("Should extract StoreError from chain")
	}
	if extracted.Ref != "acme/app#7" {
		t.Errorf("Ref = %q, want %q", extracted.Ref, "acme/app#7")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrRoadmapNotFound,
		ErrNodeNotFound,
		ErrAmbiguousNode,
		ErrDependencyCycle,
		ErrPlanNotAddressed,
		ErrInvalidStatus,
		ErrDocumentChanged,
		ErrIssueNotFound,
		ErrAuthRequired,
		ErrProviderUnavailable,
		ErrInvalidRef,
		ErrInvalidInput,
		ErrOperationFailed,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && Is(err1, err2) {
				t.Errorf("Sentinel error %v should not match %v", err1, err2)
			}
		}
	}
}
