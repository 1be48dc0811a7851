package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"github.com/stewardhq/steward/internal/admin"
	"github.com/stewardhq/steward/internal/domain"
	"github.com/stewardhq/steward/internal/observability"
	"github.com/stewardhq/steward/internal/repository"
)

// RevisionService snapshots every admin write so the history actions can
// show, inspect and compare past object states.
type RevisionService struct {
	repo repository.RevisionRepository
}

func NewRevisionService(repo repository.RevisionRepository) *RevisionService {
	return &RevisionService{repo: repo}
}

// Record stores a snapshot of obj after a successful write. Recording is
// best-effort bookkeeping for admins with revisions disabled: it returns
// immediately without touching storage.
func (s *RevisionService) Record(ctx context.Context, d *admin.Descriptor, obj any, action string, actor *admin.Actor) error {
	if !d.RevisionsEnabled() {
		return nil
	}
	snapshot, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", d.Code(), err)
	}
	rev := &domain.Revision{
		AdminCode: d.Code(),
		ObjectID:  d.ObjectID(obj),
		Action:    action,
		Snapshot:  string(snapshot),
	}
	if actor != nil {
		rev.ActorID = actor.OperatorID
		rev.ActorEmail = actor.Email
	}
	if err := s.repo.Append(ctx, rev); err != nil {
		return err
	}
	observability.RecordRevisionWrite(ctx, d.Code(), action)
	return nil
}

func (s *RevisionService) List(ctx context.Context, d *admin.Descriptor, objectID string) ([]domain.Revision, error) {
	return s.repo.ListByObject(ctx, d.Code(), objectID)
}

func (s *RevisionService) Get(ctx context.Context, d *admin.Descriptor, objectID string, seq int64) (*domain.Revision, error) {
	return s.repo.FindBySeq(ctx, d.Code(), objectID, seq)
}

// SnapshotValues flattens a revision snapshot into sorted key/value pairs
// for rendering.
func (s *RevisionService) SnapshotValues(rev *domain.Revision) ([]RevisionValue, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rev.Snapshot), &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot seq %d: %w", rev.Seq, err)
	}
	out := make([]RevisionValue, 0, len(raw))
	for k, v := range raw {
		out = append(out, RevisionValue{Field: k, Value: compactJSONValue(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

type RevisionValue struct {
	Field string
	Value string
}

type RevisionDiff struct {
	Field   string
	Base    string
	Compare string
	Changed bool
}

// Compare produces a field-by-field diff between two revisions of the same
// object. Fields missing on one side show as empty.
func (s *RevisionService) Compare(ctx context.Context, d *admin.Descriptor, objectID string, baseSeq, compareSeq int64) (base, compare *domain.Revision, diffs []RevisionDiff, err error) {
	base, err = s.Get(ctx, d, objectID, baseSeq)
	if err != nil {
		return nil, nil, nil, err
	}
	compare, err = s.Get(ctx, d, objectID, compareSeq)
	if err != nil {
		return nil, nil, nil, err
	}

	baseValues, err := s.SnapshotValues(base)
	if err != nil {
		return nil, nil, nil, err
	}
	compareValues, err := s.SnapshotValues(compare)
	if err != nil {
		return nil, nil, nil, err
	}

	byField := map[string]*RevisionDiff{}
	order := make([]string, 0, len(baseValues))
	for _, v := range baseValues {
		byField[v.Field] = &RevisionDiff{Field: v.Field, Base: v.Value}
		order = append(order, v.Field)
	}
	for _, v := range compareValues {
		if d, ok := byField[v.Field]; ok {
			d.Compare = v.Value
		} else {
			byField[v.Field] = &RevisionDiff{Field: v.Field, Compare: v.Value}
			order = append(order, v.Field)
		}
	}
	sort.Strings(order)

	diffs = make([]RevisionDiff, 0, len(order))
	for _, f := range order {
		entry := byField[f]
		entry.Changed = entry.Base != entry.Compare
		diffs = append(diffs, *entry)
	}
	return base, compare, diffs, nil
}

func compactJSONValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
