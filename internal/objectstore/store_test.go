package objectstore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectError(t *testing.T) {
	err := &ObjectError{Op: "Delete", Key: "vault/a", Err: ErrAccessDenied}
	assert.Equal(t, `objectstore: Delete "vault/a": access denied`, err.Error())
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestNewKey(t *testing.T) {
	a, b := NewKey(), NewKey()
	assert.True(t, strings.HasPrefix(a, KeyPrefix))
	assert.NotEqual(t, a, b)
}

func TestMockStore(t *testing.T) {
	ctx := context.Background()
	s := NewMockStore("vault/a")
	assert.True(t, s.Has("vault/a"))

	require.NoError(t, s.Delete(ctx, "vault/a"))
	require.NoError(t, s.Delete(ctx, "vault/a"), "delete is idempotent")
	assert.False(t, s.Has("vault/a"))

	url, err := s.PresignPut(ctx, "vault/b", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "vault/b")
	assert.True(t, s.Has("vault/b"))

	s.DeleteErr = errors.New("unreachable")
	err = s.Delete(ctx, "vault/b")
	var oe *ObjectError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "vault/b", oe.Key)
	assert.True(t, s.Has("vault/b"))

	assert.Equal(t, []string{"vault/a", "vault/a", "vault/b"}, s.Deletes())
}

type recorder struct {
	deletes, presigns []bool
}

func (r *recorder) RecordDelete(_ float64, ok bool)     { r.deletes = append(r.deletes, ok) }
func (r *recorder) RecordPresignPut(_ float64, ok bool) { r.presigns = append(r.presigns, ok) }

func TestInstrumentedStore(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStore()
	rec := &recorder{}
	s := NewInstrumentedStore(mock, rec)

	require.NoError(t, s.Delete(ctx, "vault/a"))
	mock.DeleteErr = errors.New("boom")
	require.Error(t, s.Delete(ctx, "vault/a"))
	_, err := s.PresignPut(ctx, "vault/c", time.Minute)
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false}, rec.deletes)
	assert.Equal(t, []bool{true}, rec.presigns)

	plain := NewInstrumentedStore(mock, nil)
	assert.Error(t, plain.Delete(ctx, "vault/a"))
}
