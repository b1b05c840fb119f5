package aggregates

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/weights"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
	var de *domainagg.Error
	if !errors.As(err, &de) || de.Message != "bad input" {
		t.Fatalf("message: want=%q got=%+v", "bad input", de)
	}
}

func TestMapError_InvalidState(t *testing.T) {
	err := MapError("op", InvalidStateError("model is already active"))
	if !domainagg.IsCode(err, domainagg.CodeInvalidState) {
		t.Fatalf("expected invalid_state code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_WeightsErrors(t *testing.T) {
	err := MapError("op", fmt.Errorf("aggregate: %w", &weights.ShapeMismatchError{Layer: 2, Want: []int{2}, Got: []int{3}}))
	if !domainagg.IsCode(err, domainagg.CodeShapeMismatch) {
		t.Fatalf("expected shape_mismatch, got %q", domainagg.CodeOf(err))
	}
	err = MapError("op", &weights.StructureMismatchError{Contribution: 1, Want: 2, Got: 1})
	if !domainagg.IsCode(err, domainagg.CodeStructureMismatch) {
		t.Fatalf("expected structure_mismatch, got %q", domainagg.CodeOf(err))
	}
}

func TestMapError_DriverErrors(t *testing.T) {
	cases := []struct {
		err  error
		want domainagg.ErrorCode
	}{
		{&pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{&pgconn.PgError{Code: "40P01"}, domainagg.CodeRetryable},
		{errors.New("constraint failed: UNIQUE constraint failed: model.version (2067)"), domainagg.CodeConflict},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), domainagg.CodeRetryable},
		{errors.New("no such table: model"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		if got := domainagg.CodeOf(MapError("op", tc.err)); got != tc.want {
			t.Fatalf("%v: want=%s got=%s", tc.err, tc.want, got)
		}
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}
