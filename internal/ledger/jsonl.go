package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// JsonlStore is a file-backed Store for local runs without Postgres.
// Writes append; Query collapses appended rows so the last write per
// (partition, sort key) wins, matching the overwrite semantics of the
// real store.
type JsonlStore struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStore(path string) *JsonlStore {
	return &JsonlStore{path: path}
}

func (s *JsonlStore) BatchPut(ctx context.Context, partition string, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range items {
		item.Partition = partition
		line, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal ledger item: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write ledger item: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush ledger: %w", err)
	}
	return nil
}

func (s *JsonlStore) Query(ctx context.Context, partition string, mostRecentN int) ([]Item, error) {
	if mostRecentN <= 0 {
		return nil, fmt.Errorf("most recent n must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger file: %w", err)
	}

	latest := make(map[uint64]Item)
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var item Item
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parse ledger line: %w", err)
		}
		if item.Partition != partition {
			continue
		}
		latest[item.SortKey] = item
	}

	items := make([]Item, 0, len(latest))
	for _, item := range latest {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SortKey > items[j].SortKey })

	if len(items) > mostRecentN {
		items = items[:mostRecentN]
	}
	return items, nil
}
