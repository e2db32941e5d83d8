package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/interviewmesh/core"
)

var _ core.SessionStore = (*InMemoryStore)(nil)

func newStoredSession(id string) *core.InterviewSession {
	return &core.InterviewSession{
		ID:           id,
		Candidate:    core.CandidateProfile{Name: "Jordan Doe"},
		Requirements: core.JobRequirements{Title: "Backend Engineer"},
		Topics:       []core.Topic{core.NewTopic("Go Concurrency", 5)},
		CurrentTopic: "Go Concurrency",
		Status:       core.StatusActive,
	}
}

func TestInMemoryStorePutGet(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Put(newStoredSession("s1")))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStoreGetMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	assert.Contains(t, err.Error(), "nope")
}

func TestInMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewInMemoryStore()
	original := newStoredSession("s1")
	require.NoError(t, store.Put(original))

	// Mutating the put session after the fact does not leak into the store.
	original.Topics[0].Covered = true
	first, err := store.Get("s1")
	require.NoError(t, err)
	assert.False(t, first.Topics[0].Covered)

	// Mutating a fetched session does not affect later fetches.
	first.AddMessage(core.RoleInterviewer, "Q1", "Go Concurrency", nil)
	second, err := store.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, second.ConversationHistory)
}

func TestInMemoryStorePutReplaces(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Put(newStoredSession("s1")))

	updated := newStoredSession("s1")
	updated.Status = core.StatusCompleted
	require.NoError(t, store.Put(updated))

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStoreRemove(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Put(newStoredSession("s1")))

	require.NoError(t, store.Remove("s1"))
	_, err := store.Get("s1")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	// Removing an absent id is not an error.
	assert.NoError(t, store.Remove("s1"))
}
