package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without_detail",
			err:  &AppError{Code: ErrCodeInvalidSMILES, Message: "bad smiles"},
			want: "[MOL_001] bad smiles",
		},
		{
			name: "with_detail",
			err:  &AppError{Code: ErrCodeLigPrepFailed, Message: "conversion failed", Detail: "exit status 1"},
			want: "[EXT_001] conversion failed: exit status 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if err := Wrap(nil, ErrCodeIO, "should be nil"); err != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", err)
	}
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := New(ErrCodeSMILESParseFailed, "parse failed")
	outer := Wrap(inner, CodeUnknown, "stage failed")
	assert.Equal(t, ErrCodeSMILESParseFailed, outer.Code)
	assert.True(t, stderrors.Is(outer, outer))
	assert.ErrorIs(t, outer, inner)
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeLookupFailed, "pubchem down")
	wrapped := Wrap(inner, ErrCodeExternalService, "lookup stage")
	assert.True(t, IsCode(wrapped, ErrCodeLookupFailed))
	assert.True(t, IsCode(wrapped, ErrCodeExternalService))
	assert.False(t, IsCode(wrapped, ErrCodeTrainFailed))
	assert.False(t, IsCode(nil, ErrCodeLookupFailed))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeModelNotFitted, GetCode(New(ErrCodeModelNotFitted, "fit first")))
}

func TestWithDetail(t *testing.T) {
	var nilErr *AppError
	assert.Nil(t, nilErr.WithDetail("x"))

	base := New(ErrCodeDescriptorFailed, "tool failed")
	withDetail := base.WithDetail("smiles=c1ccccc1")
	assert.Empty(t, base.Detail)
	assert.Equal(t, "smiles=c1ccccc1", withDetail.Detail)
}
