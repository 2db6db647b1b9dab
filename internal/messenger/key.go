package messenger

import (
	"fmt"
	"strings"
)

const keySeparator = "_"

// ConversationKey 单聊会话标识，与参与者顺序无关
func ConversationKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + keySeparator + b
}

// PeerOf 从会话标识中解析出对方 ID
func PeerOf(key, self string) (string, error) {
	u1, u2, ok := strings.Cut(key, keySeparator)
	if !ok || u1 == "" || u2 == "" {
		return "", fmt.Errorf("invalid conversation key %q", key)
	}
	switch self {
	case u1:
		return u2, nil
	case u2:
		return u1, nil
	}
	return "", fmt.Errorf("user %s is not a participant of %q", self, key)
}
