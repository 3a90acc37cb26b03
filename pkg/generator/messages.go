package generator

import (
	"fmt"

	"github.com/jdgilhuly/workout_log/pkg/provider"
)

// RoutineRequiredText is shown when generation is triggered without a
// workout routine.
const RoutineRequiredText = "헬스 루틴을 입력해주세요."

// PlaceholderText is a slot's text before the first generation.
func PlaceholderText(id provider.ID) string {
	return fmt.Sprintf("여기에 %s 생성 결과가 표시됩니다.", id.Label())
}

// MissingCredentialText is written into a slot whose provider has no
// credential at trigger time.
func MissingCredentialText(id provider.ID) string {
	return fmt.Sprintf("%s API 키를 먼저 입력해주세요.", id.Label())
}

// FailureText converts any generation failure into the provider-prefixed
// string shown in the slot. Provider-reported errors show the provider's own
// message, or a generic fallback when it sent none.
func FailureText(id provider.ID, err error) string {
	msg := err.Error()
	if apiErr, ok := provider.AsAPIError(err); ok {
		msg = apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("%s API 호출 실패", id.Label())
		}
	}
	return fmt.Sprintf("%s API 오류: %s", id.Label(), msg)
}
