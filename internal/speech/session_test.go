package speech

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	results := make(chan Result, 1)
	sess := NewSession(time.Minute, 10, func(r Result) { results <- r })

	require.Equal(t, Idle, sess.State())
	require.NoError(t, sess.Start())
	require.Equal(t, Listening, sess.State())
	require.ErrorIs(t, sess.Start(), ErrAlreadyListening)

	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindPartial, Text: "invoice for"}))
	require.Equal(t, "invoice for", sess.Transcript())

	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "invoice for john smith"}))
	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "web design 500 dollars"}))
	require.Equal(t, "invoice for john smith web design 500 dollars", sess.Transcript())

	require.NoError(t, sess.Stop())
	require.Equal(t, Done, sess.State())

	res := <-results
	require.True(t, res.Usable)
	require.Equal(t, "invoice for john smith web design 500 dollars", res.Transcript)
	require.NoError(t, res.Err)
}

func TestPartialReplacedByFinal(t *testing.T) {
	sess := NewSession(time.Minute, 10, func(Result) {})
	require.NoError(t, sess.Start())

	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindPartial, Text: "inv"}))
	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindPartial, Text: "invoice fo"}))
	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "invoice for acme"}))

	require.Equal(t, "invoice for acme", sess.Transcript())
}

func TestShortTranscriptNotUsable(t *testing.T) {
	results := make(chan Result, 1)
	sess := NewSession(time.Minute, 10, func(r Result) { results <- r })
	require.NoError(t, sess.Start())

	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "hello"}))
	require.NoError(t, sess.Stop())

	res := <-results
	require.False(t, res.Usable)
	require.Equal(t, "hello", res.Transcript)
}

func TestSilenceAutoStop(t *testing.T) {
	results := make(chan Result, 1)
	sess := NewSession(30*time.Millisecond, 10, func(r Result) { results <- r })
	require.NoError(t, sess.Start())

	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "invoice for maria garcia"}))

	select {
	case res := <-results:
		require.True(t, res.Usable)
		require.Equal(t, "invoice for maria garcia", res.Transcript)
	case <-time.After(time.Second):
		t.Fatal("session did not auto-stop on silence")
	}
	require.Equal(t, Done, sess.State())
}

func TestNoAutoStopBeforeFirstFinal(t *testing.T) {
	results := make(chan Result, 1)
	sess := NewSession(20*time.Millisecond, 10, func(r Result) { results <- r })
	require.NoError(t, sess.Start())

	// partials don't arm the silence timer, only settled fragments do
	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindPartial, Text: "inv"}))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, Listening, sess.State())

	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "invoice for acme corp"}))
	select {
	case res := <-results:
		require.Equal(t, "invoice for acme corp", res.Transcript)
	case <-time.After(time.Second):
		t.Fatal("session did not auto-stop after the first final fragment")
	}
}

func TestFinalEventResetsSilenceTimer(t *testing.T) {
	results := make(chan Result, 1)
	sess := NewSession(60*time.Millisecond, 10, func(r Result) { results <- r })
	require.NoError(t, sess.Start())

	// keep talking faster than the timeout
	for i := 0; i < 3; i++ {
		time.Sleep(30 * time.Millisecond)
		require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "more words here"}))
	}
	require.Equal(t, Listening, sess.State())

	select {
	case <-results:
	case <-time.After(time.Second):
		t.Fatal("session never auto-stopped")
	}
}

func TestFailDeliversError(t *testing.T) {
	results := make(chan Result, 1)
	sess := NewSession(time.Minute, 10, func(r Result) { results <- r })
	require.NoError(t, sess.Start())

	captureErr := errors.New("microphone permission denied")
	sess.Fail(captureErr)

	res := <-results
	require.ErrorIs(t, res.Err, captureErr)
	require.False(t, res.Usable)
	require.Equal(t, Failed, sess.State())
	require.ErrorIs(t, sess.Err(), captureErr)

	// events after failure are rejected
	require.ErrorIs(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "x"}), ErrNotListening)
	require.ErrorIs(t, sess.Start(), ErrSessionDone)
}

func TestEventsRejectedWhenIdle(t *testing.T) {
	sess := NewSession(time.Minute, 10, func(Result) {})
	require.ErrorIs(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "x"}), ErrNotListening)
	require.ErrorIs(t, sess.Stop(), ErrNotListening)
}

func TestManagerRemovesFinishedSessions(t *testing.T) {
	m := NewManager(time.Minute, 10)

	done := make(chan Result, 1)
	id, err := m.Open(func(r Result) { done <- r })
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, 1, m.Len())

	sess := m.Get(id)
	require.NotNil(t, sess)
	require.NoError(t, sess.HandleEvent(TranscriptEvent{Kind: KindFinal, Text: "invoice for acme corp today"}))
	require.NoError(t, sess.Stop())

	<-done
	require.Equal(t, 0, m.Len())
	require.Nil(t, m.Get(id))
}
