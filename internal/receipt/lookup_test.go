package receipt

import (
	"strings"
	"testing"

	"revenueScope/internal/model"
)

func sampleReceipt() model.Receipt {
	return model.Receipt{
		TxHash: "0xabc",
		Logs: []model.LogEntry{
			{Address: "0x1", Topics: []string{"0xt0", "0xfrom", "0x000000000000000000000000aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}, Data: "0x01"},
			{Address: "0x2", Topics: []string{"0xt0", "0xfrom", "0x000000000000000000000000bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}, Data: "0x02"},
		},
	}
}

func TestFindByIndex(t *testing.T) {
	rcpt := sampleReceipt()

	entry, ok := Find(rcpt, AtIndex(1))
	if !ok || entry.Data != "0x02" {
		t.Fatalf("index lookup mismatch: %+v ok=%v", entry, ok)
	}

	if _, ok := Find(rcpt, AtIndex(2)); ok {
		t.Fatalf("out of range index should not match")
	}
	if _, ok := Find(rcpt, AtIndex(-1)); ok {
		t.Fatalf("negative index should not match")
	}
}

func TestFindByTopic(t *testing.T) {
	rcpt := sampleReceipt()

	spec := ByTopic(2, "0x000000000000000000000000BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB")
	entry, ok := Find(rcpt, spec)
	if !ok || entry.Data != "0x02" {
		t.Fatalf("topic lookup should match case-insensitively: %+v ok=%v", entry, ok)
	}

	if _, ok := Find(rcpt, ByTopic(2, "0x0000000000000000000000000000000000000000000000000000000000000000")); ok {
		t.Fatalf("unknown topic should not match")
	}
	if _, ok := Find(rcpt, ByTopic(5, "0xt0")); ok {
		t.Fatalf("topic position beyond log topics should not match")
	}
}

func TestAddressTopic(t *testing.T) {
	topic := AddressTopic("0xAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAaAa")
	if len(topic) != 66 {
		t.Fatalf("topic should be 32 bytes hex, got %d chars", len(topic))
	}
	if !strings.HasPrefix(topic, "0x000000000000000000000000") {
		t.Fatalf("address topic should be left padded: %s", topic)
	}
	if !strings.EqualFold(topic[26:], "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa") {
		t.Fatalf("address bytes mismatch: %s", topic)
	}
}
