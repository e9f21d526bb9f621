package vatrace

import "testing"

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusSuccess, "VA_STATUS_SUCCESS"},
		{StatusErrorOperationFailed, "VA_STATUS_ERROR_OPERATION_FAILED"},
		{StatusErrorInvalidDisplay, "VA_STATUS_ERROR_INVALID_DISPLAY"},
		{StatusErrorUnsupportedBufferType, "VA_STATUS_ERROR_UNSUPPORTED_BUFFERTYPE"},
		{StatusErrorTimedOut, "VA_STATUS_ERROR_TIMEDOUT"},
		{StatusErrorUnknown, "VA_STATUS_ERROR_UNKNOWN"},
		{Status(0x23), "VA_STATUS(0x00000023)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("Status.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatus_OK(t *testing.T) {
	if !StatusSuccess.OK() {
		t.Error("StatusSuccess.OK() = false")
	}
	if StatusGenericFailure.OK() {
		t.Error("StatusGenericFailure.OK() = true")
	}
}

func TestStatusGenericFailure(t *testing.T) {
	if StatusGenericFailure != StatusErrorOperationFailed || StatusGenericFailure.String() != "VA_STATUS_ERROR_OPERATION_FAILED" {
		t.Errorf("StatusGenericFailure = %v (%d)", StatusGenericFailure, int32(StatusGenericFailure))
	}
}
