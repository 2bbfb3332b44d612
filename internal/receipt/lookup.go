package receipt

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"revenueScope/internal/model"
)

// LookupSpec addresses one log inside a receipt, either by fixed
// position or by matching a topic value at a position. Different
// routing paths place the relevant transfer events at different log
// positions, so callers configure the spec and never branch on which
// strategy is active.
type LookupSpec struct {
	Index    int
	ByTopic  bool
	TopicPos int
	Topic    string
}

// AtIndex addresses the log at a fixed position.
func AtIndex(index int) LookupSpec {
	return LookupSpec{Index: index}
}

// ByTopic addresses the first log whose topic at pos equals topic.
func ByTopic(pos int, topic string) LookupSpec {
	return LookupSpec{ByTopic: true, TopicPos: pos, Topic: topic}
}

// AddressTopic encodes an address as a 32-byte topic value, the form
// indexed address arguments take in log topics.
func AddressTopic(address string) string {
	return common.BytesToHash(common.HexToAddress(address).Bytes()).Hex()
}

// Find locates the log a spec addresses. The second return is false
// when no log matches; callers drop the candidate rather than build a
// partial record.
func Find(rcpt model.Receipt, spec LookupSpec) (model.LogEntry, bool) {
	if !spec.ByTopic {
		if spec.Index < 0 || spec.Index >= len(rcpt.Logs) {
			return model.LogEntry{}, false
		}
		return rcpt.Logs[spec.Index], true
	}

	for _, entry := range rcpt.Logs {
		if spec.TopicPos >= len(entry.Topics) {
			continue
		}
		if strings.EqualFold(entry.Topics[spec.TopicPos], spec.Topic) {
			return entry, true
		}
	}
	return model.LogEntry{}, false
}
