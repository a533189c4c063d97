package graph

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeg-helpline/server/internal/agent/dialogs"
	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/recognizer"
	"github.com/aeg-helpline/server/internal/agent/repo"
	errx "github.com/aeg-helpline/server/internal/core/error"
)

// capturingRecognizer records the inputs it was asked to classify.
type capturingRecognizer struct {
	mu     sync.Mutex
	next   recognizer.Recognizer
	inputs []model.NLUInput
}

func (c *capturingRecognizer) IsConfigured() bool { return c.next.IsConfigured() }

func (c *capturingRecognizer) Recognize(ctx context.Context, in model.NLUInput) (*model.RecognizerResult, error) {
	c.mu.Lock()
	c.inputs = append(c.inputs, in)
	c.mu.Unlock()
	return c.next.Recognize(ctx, in)
}

func newRunner(t *testing.T) (*Runner, *capturingRecognizer, *repo.MemoryDialogStateRepository) {
	t.Helper()
	rec := &capturingRecognizer{next: recognizer.NewFallback(nil, recognizer.NewKeyword(0.5))}
	states := repo.NewMemoryDialogStateRepository(time.Hour)
	runner, err := BuildTurnGraph(context.Background(), Config{
		Recognizer:       rec,
		ConversationRepo: repo.NewMemoryConversationRepository(time.Hour),
		DialogStateRepo:  states,
		Clock:            func() time.Time { return time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return runner, rec, states
}

func texts(out model.TurnOutput) []string {
	res := make([]string, 0, len(out.Activities))
	for _, a := range out.Activities {
		res = append(res, a.Text)
	}
	return res
}

func TestRunnerConversation(t *testing.T) {
	runner, rec, _ := newRunner(t)
	ctx := context.Background()
	say := func(text string) model.TurnOutput {
		t.Helper()
		out, err := runner.Invoke(ctx, model.TurnInput{ConversationID: "conv-1", Text: text})
		require.NoError(t, err)
		assert.Equal(t, "conv-1", out.ConversationID)
		return out
	}

	out := say("hi")
	assert.Equal(t, []string{dialogs.NLUNotConfiguredMessage, dialogs.WelcomeMessage}, texts(out))
	assert.Equal(t, []string{dialogs.MainDialogID, dialogs.MainWaterfallDialog, "TextPrompt"}, out.ActiveDialogs)
	assert.Empty(t, out.Intent)

	out = say("I need an asbestos inspection")
	assert.Equal(t, []string{dialogs.AsbestosMessage}, texts(out))
	assert.Equal(t, model.IntentAsbestosAppointment, out.Intent)
	require.Len(t, rec.inputs, 1)
	assert.Contains(t, rec.inputs[0].Context, "UserMessage(hi)")
	assert.Contains(t, rec.inputs[0].Context, "AssistantMessage("+dialogs.WelcomeMessage+")")
	assert.NotContains(t, rec.inputs[0].Context, "asbestos inspection)")

	out = say("help")
	assert.Equal(t, []string{dialogs.HelpMessage, dialogs.AsbestosMessage}, texts(out))
	assert.Empty(t, out.Intent)

	out = say("yes")
	assert.Equal(t, []string{dialogs.ConfirmMessage}, texts(out))
	assert.Equal(t, model.IntentConfirm, out.Intent)

	out = say("Start over!")
	assert.Equal(t, []string{dialogs.CancelMessage, dialogs.NLUNotConfiguredMessage, dialogs.WelcomeMessage}, texts(out))
	assert.Equal(t, []string{dialogs.MainDialogID, dialogs.MainWaterfallDialog, "TextPrompt"}, out.ActiveDialogs)

	history, err := runner.Transcript(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 14)
	assert.Equal(t, schema.User, history.Messages[0].Role)
	assert.Equal(t, "hi", history.Messages[0].Content)
	assert.Equal(t, schema.Assistant, history.Messages[1].Role)
	assert.Equal(t, dialogs.NLUNotConfiguredMessage, history.Messages[1].Content)
}

func TestRunnerHelpOnEmptyStackStartsDialog(t *testing.T) {
	runner, _, _ := newRunner(t)
	out, err := runner.Invoke(context.Background(), model.TurnInput{ConversationID: "c", Text: "help"})
	require.NoError(t, err)
	assert.Equal(t, []string{dialogs.HelpMessage, dialogs.NLUNotConfiguredMessage, dialogs.WelcomeMessage}, texts(out))
}

func TestRunnerPersistsDialogState(t *testing.T) {
	runner, _, states := newRunner(t)
	ctx := context.Background()
	_, err := runner.Invoke(ctx, model.TurnInput{ConversationID: "c", Text: "hi"})
	require.NoError(t, err)

	state, err := states.Load(ctx, "c")
	require.NoError(t, err)
	require.Len(t, state.Stack, 1)
	assert.Equal(t, dialogs.MainDialogID, state.Stack[0].ID)
	assert.False(t, state.UpdatedAt.IsZero())

	require.NoError(t, runner.Reset(ctx, "c"))
	state, err = states.Load(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, state.Stack)
	history, err := runner.Transcript(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}

func TestRunnerRejectsMissingConversationID(t *testing.T) {
	runner, _, _ := newRunner(t)
	_, err := runner.Invoke(context.Background(), model.TurnInput{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
}

func TestRunnerSerializesConversationTurns(t *testing.T) {
	runner, _, _ := newRunner(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := runner.Invoke(ctx, model.TurnInput{ConversationID: fmt.Sprintf("c-%d", i%2), Text: "hello"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	for _, id := range []string{"c-0", "c-1"} {
		history, err := runner.Transcript(ctx, id)
		require.NoError(t, err)
		users := 0
		for _, m := range history.Messages {
			if m.Role == schema.User {
				users++
			}
		}
		assert.Equal(t, 8, users)
	}
	assert.Equal(t, 0, runner.locks.size())
}

func TestBuildTurnGraphValidatesConfig(t *testing.T) {
	ctx := context.Background()
	_, err := BuildTurnGraph(ctx, Config{})
	assert.Error(t, err)

	_, err = BuildTurnGraph(ctx, Config{
		ConversationRepo: repo.NewMemoryConversationRepository(0),
		DialogStateRepo:  repo.NewMemoryDialogStateRepository(0),
	})
	assert.ErrorIs(t, err, dialogs.ErrMissingRecognizer)

	_, err = BuildGraph(ctx, nil)
	assert.Error(t, err)
}

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	assert.Equal(t, 2, k.size())

	acquired := make(chan struct{})
	done := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
		close(done)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same key must wait")
	case <-time.After(20 * time.Millisecond):
	}
	unlockA()
	<-done
	unlockB()
	assert.Equal(t, 0, k.size())
}
