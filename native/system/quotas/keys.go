package quotas

import (
	"fmt"
	"strings"

	"gitbounty/crypto"
)

const quotasPrefix = "quotas"

func normaliseProgram(program string) string {
	return strings.ToLower(strings.TrimSpace(program))
}

func counterKey(program string, epoch uint64, addr crypto.Address) []byte {
	return []byte(fmt.Sprintf("%s/%s/%d/%x", quotasPrefix, normaliseProgram(program), epoch, addr[:]))
}
