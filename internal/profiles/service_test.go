package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedvix/syncledger-extract/constants"
	"github.com/vedvix/syncledger-extract/internal/common"
	"github.com/vedvix/syncledger-extract/internal/entity"
	"github.com/vedvix/syncledger-extract/internal/mapping"
)

type memProfileRepo struct {
	rows map[string]*entity.MappingProfile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{rows: make(map[string]*entity.MappingProfile)}
}

func (m *memProfileRepo) GetByID(_ context.Context, id string) (*entity.MappingProfile, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, common.NewAppError("PROFILE_NOT_FOUND", "mapping profile not found", common.ErrNotFound)
	}
	return p, nil
}
func (m *memProfileRepo) ListByOrg(_ context.Context, _ string) ([]*entity.MappingProfile, error) {
	out := make([]*entity.MappingProfile, 0, len(m.rows))
	for _, p := range m.rows {
		out = append(out, p)
	}
	return out, nil
}
func (m *memProfileRepo) Upsert(_ context.Context, p *entity.MappingProfile) error {
	m.rows[p.ID] = p
	return nil
}
func (m *memProfileRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return common.NewAppError("PROFILE_NOT_FOUND", "mapping profile not found", common.ErrNotFound)
	}
	delete(m.rows, id)
	return nil
}

func customProfile(id string) *entity.MappingProfile {
	return &entity.MappingProfile{
		ID:    id,
		OrgID: "org-1",
		Name:  "ACME vendor overrides",
		Rules: []entity.FieldMappingRule{
			{Target: constants.TgtInvoiceNumber, Source: constants.SrcInvoiceNumber, Required: true},
			{Target: constants.TgtGLAccount, DefaultValue: "6200"},
		},
	}
}

func TestSaveRegistersAndPersists(t *testing.T) {
	repo := newMemProfileRepo()
	svc := NewService(nil, repo, nil)

	require.NoError(t, svc.Save(context.Background(), customProfile("acme")))

	got, err := svc.Get("acme")
	require.NoError(t, err)
	assert.Equal(t, "ACME vendor overrides", got.Name)
	assert.False(t, got.Builtin)
	assert.False(t, got.UpdatedAt.IsZero())
	assert.Contains(t, repo.rows, "acme")
}

func TestSaveRejectsBuiltinID(t *testing.T) {
	svc := NewService(nil, newMemProfileRepo(), nil)

	p := customProfile(mapping.ProfileDefaultSubcontractor)
	err := svc.Save(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrBuiltinProfile))
}

func TestSaveRejectsInvalidRules(t *testing.T) {
	svc := NewService(nil, newMemProfileRepo(), nil)

	p := customProfile("broken")
	p.Rules = []entity.FieldMappingRule{{Target: constants.TargetField("no_such_field"), DefaultValue: "x"}}
	require.Error(t, svc.Save(context.Background(), p))

	_, err := svc.Get("broken")
	require.Error(t, err)
}

func TestDeleteBuiltinRejected(t *testing.T) {
	svc := NewService(nil, newMemProfileRepo(), nil)

	err := svc.Delete(context.Background(), mapping.ProfileStandardInvoice)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrBuiltinProfile))
}

func TestDeleteRemovesFromEngineAndStore(t *testing.T) {
	repo := newMemProfileRepo()
	svc := NewService(nil, repo, nil)
	require.NoError(t, svc.Save(context.Background(), customProfile("acme")))

	require.NoError(t, svc.Delete(context.Background(), "acme"))
	_, err := svc.Get("acme")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.NotContains(t, repo.rows, "acme")
}

func TestDeleteUnknownProfile(t *testing.T) {
	svc := NewService(nil, newMemProfileRepo(), nil)
	err := svc.Delete(context.Background(), "ghost")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestLoadPersistedSkipsBadRows(t *testing.T) {
	repo := newMemProfileRepo()
	repo.rows["acme"] = customProfile("acme")
	broken := customProfile("broken")
	broken.VendorPattern = "(["
	repo.rows["broken"] = broken
	repo.rows[mapping.ProfileStandardInvoice] = customProfile(mapping.ProfileStandardInvoice)

	svc := NewService(nil, repo, nil)
	loaded, err := svc.LoadPersisted(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	_, err = svc.Get("acme")
	assert.NoError(t, err)
	_, err = svc.Get("broken")
	assert.Error(t, err)
}

func TestListIncludesBuiltins(t *testing.T) {
	svc := NewService(nil, newMemProfileRepo(), nil)
	require.NoError(t, svc.Save(context.Background(), customProfile("acme")))

	ids := make([]string, 0)
	for _, p := range svc.List("org-1") {
		ids = append(ids, p.ID)
	}
	assert.Contains(t, ids, mapping.ProfileDefaultSubcontractor)
	assert.Contains(t, ids, mapping.ProfileStandardInvoice)
	assert.Contains(t, ids, "acme")
}
