package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mkarpov/linkstore/internal/fingerprint"
)

// MemoryStorage keeps everything in process memory. It mirrors the
// constraint semantics of the Postgres repository so the service layer
// behaves identically against either backend. Used when no DSN is
// configured, and as the test double.
type MemoryStorage struct {
	mu        sync.Mutex
	nextID    int64
	byDigest  map[string]*URLRecord
	byCode    map[string]*URLRecord
	aliases   map[string]int64
	snapshots map[string]*BloomSnapshot
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		nextID:    1,
		byDigest:  make(map[string]*URLRecord),
		byCode:    make(map[string]*URLRecord),
		aliases:   make(map[string]int64),
		snapshots: make(map[string]*BloomSnapshot),
	}, nil
}

func (m *MemoryStorage) Upsert(ctx context.Context, code, original string) (Outcome, *URLRecord, error) {
	digest := fingerprint.Sum(original)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byDigest[string(digest)]; ok {
		r := *existing
		return OutcomeExisting, &r, nil
	}

	// Same check the code unique index performs in Postgres.
	if _, taken := m.byCode[code]; taken {
		return 0, nil, ErrDuplicate
	}

	record := &URLRecord{
		ID:       m.nextID,
		Code:     code,
		Original: original,
		Digest:   digest,
	}
	m.nextID++
	m.byDigest[string(digest)] = record
	m.byCode[code] = record

	r := *record
	return OutcomeCreated, &r, nil
}

func (m *MemoryStorage) FindByURL(ctx context.Context, original string) (*URLRecord, error) {
	digest := fingerprint.Sum(original)

	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.byDigest[string(digest)]
	if !ok {
		return nil, ErrNotFound
	}

	r := *record
	return &r, nil
}

func (m *MemoryStorage) ListCodes(ctx context.Context, offset, limit uint64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Same (priority, ord, code) sort key as the Postgres union view:
	// canonical codes in id order first, then aliases by target id with
	// the code itself breaking ties.
	canonical := make([]*URLRecord, 0, len(m.byCode))
	for _, r := range m.byCode {
		canonical = append(canonical, r)
	}
	sort.Slice(canonical, func(i, j int) bool { return canonical[i].ID < canonical[j].ID })

	all := make([]string, 0, len(canonical)+len(m.aliases))
	for _, r := range canonical {
		all = append(all, r.Code)
	}
	aliasCodes := make([]string, 0, len(m.aliases))
	for a := range m.aliases {
		aliasCodes = append(aliasCodes, a)
	}
	sort.Slice(aliasCodes, func(i, j int) bool {
		if m.aliases[aliasCodes[i]] != m.aliases[aliasCodes[j]] {
			return m.aliases[aliasCodes[i]] < m.aliases[aliasCodes[j]]
		}
		return aliasCodes[i] < aliasCodes[j]
	})
	all = append(all, aliasCodes...)

	if offset >= uint64(len(all)) {
		return []string{}, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], nil
}

func (m *MemoryStorage) AddAlias(ctx context.Context, aliasCode string, targetID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.aliases[aliasCode]; taken {
		return ErrDuplicate
	}
	m.aliases[aliasCode] = targetID
	return nil
}

func (m *MemoryStorage) Resolve(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Canonical namespace wins over aliases.
	if record, ok := m.byCode[code]; ok {
		return record.Original, nil
	}
	if targetID, ok := m.aliases[code]; ok {
		for _, record := range m.byDigest {
			if record.ID == targetID {
				return record.Original, nil
			}
		}
	}
	return "", ErrNotFound
}

func (m *MemoryStorage) LoadSnapshot(ctx context.Context, name string) (*BloomSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, ok := m.snapshots[name]
	if !ok {
		return nil, ErrNotFound
	}

	s := *snapshot
	s.Data = append([]byte(nil), snapshot.Data...)
	return &s, nil
}

func (m *MemoryStorage) SaveSnapshot(ctx context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshots[name] = &BloomSnapshot{
		Name:      name,
		Data:      append([]byte(nil), data...),
		UpdatedAt: time.Now(),
	}
	return nil
}

func (m *MemoryStorage) PingContext(ctx context.Context) error {
	return nil
}
