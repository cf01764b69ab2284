package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"csvtoolkit/pkg/apperrors"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want apperrors.Kind
	}{
		{apperrors.Inputf("missing file"), apperrors.KindInput},
		{apperrors.Parsef("bad row"), apperrors.KindParse},
		{apperrors.Mappingf("no such column"), apperrors.KindMapping},
		{apperrors.EmptyResultf("nothing matched"), apperrors.KindEmptyResult},
		{errors.New("plain"), apperrors.KindUnknown},
		{nil, apperrors.KindUnknown},
	}
	for _, tc := range tests {
		if got := apperrors.KindOf(tc.err); got != tc.want {
			t.Fatalf("KindOf(%v)=%v want %v", tc.err, got, tc.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("while joining: %w", apperrors.Mappingf("key %q not found", "id"))
	if !apperrors.IsKind(err, apperrors.KindMapping) {
		t.Fatalf("kind lost through %%w: %v", err)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := apperrors.Wrap(apperrors.KindParse, cause, "a.csv: read")
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable via errors.Is")
	}
	if err.Error() != "a.csv: read: unexpected EOF" {
		t.Fatalf("message=%q", err.Error())
	}
	if apperrors.KindOf(err) != apperrors.KindParse {
		t.Fatalf("kind=%v", apperrors.KindOf(err))
	}
}
