package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubjectID(t *testing.T) {
	require.Equal(t, "twitter:123", SubjectID(" Twitter ", "123 "))
}

func TestMemoryStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	t0 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return t0 }

	first, err := st.Upsert(ctx, Subject{Provider: "linkedin", ProfileID: "abc", DisplayName: "Ana", AccessToken: "t1"})
	require.NoError(t, err)
	require.Equal(t, "linkedin:abc", first.ID)
	require.Equal(t, t0, first.CreatedAt)

	t1 := t0.Add(time.Hour)
	st.now = func() time.Time { return t1 }
	second, err := st.Upsert(ctx, Subject{Provider: "linkedin", ProfileID: "abc", AccessToken: "t2"})
	require.NoError(t, err)
	require.Equal(t, 1, st.Len())
	require.Equal(t, "Ana", second.DisplayName)
	require.Equal(t, "t2", second.AccessToken)
	require.Equal(t, t0, second.CreatedAt)
	require.Equal(t, t1, second.LastLoginAt)

	got, err := st.Get(ctx, "linkedin:abc")
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	_, err := st.Upsert(ctx, Subject{Provider: "tiktok"})
	require.ErrorIs(t, err, ErrInvalidSubject)

	_, err = st.Get(ctx, "tiktok:nope")
	require.ErrorIs(t, err, ErrNotFound)
}
