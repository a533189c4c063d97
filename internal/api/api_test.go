package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeg-helpline/server/internal/agent/dialogs"
	"github.com/aeg-helpline/server/internal/agent/graph"
	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/recognizer"
	"github.com/aeg-helpline/server/internal/agent/repo"
	errx "github.com/aeg-helpline/server/internal/core/error"
	"github.com/aeg-helpline/server/internal/dialog"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeRunner struct {
	lastInput model.TurnInput
	invokeErr error
	history   *model.ConversationHistory
	resetID   string
	resetErr  error
}

func (f *fakeRunner) Invoke(_ context.Context, in model.TurnInput) (model.TurnOutput, error) {
	f.lastInput = in
	if f.invokeErr != nil {
		return model.TurnOutput{}, f.invokeErr
	}
	return model.TurnOutput{
		ConversationID: in.ConversationID,
		Activities:     []dialog.Activity{{Type: dialog.MessageActivity, Text: "echo: " + in.Text}},
		ActiveDialogs:  []string{"MainDialog"},
		Intent:         model.IntentNone,
	}, nil
}

func (f *fakeRunner) Transcript(_ context.Context, id string) (*model.ConversationHistory, error) {
	if f.history == nil {
		return &model.ConversationHistory{ConversationID: id}, nil
	}
	return f.history, nil
}

func (f *fakeRunner) Reset(_ context.Context, id string) error {
	f.resetID = id
	return f.resetErr
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostMessage(t *testing.T) {
	runner := &fakeRunner{}
	r := NewRouter(runner, nil)

	w := do(t, r, http.MethodPost, "/api/messages", `{"conversation_id":"c-1","text":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "c-1", resp.ConversationID)
	require.Len(t, resp.Activities, 1)
	assert.Equal(t, "echo: hello", resp.Activities[0].Text)
	assert.Equal(t, model.IntentNone, resp.Intent)
}

func TestPostMessageGeneratesConversationID(t *testing.T) {
	runner := &fakeRunner{}
	r := NewRouter(runner, nil)

	w := do(t, r, http.MethodPost, "/api/messages", `{"text":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, runner.lastInput.ConversationID, 36)

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, runner.lastInput.ConversationID, resp.ConversationID)
}

func TestPostMessageRejectsBadBody(t *testing.T) {
	r := NewRouter(&fakeRunner{}, nil)

	for _, body := range []string{`{`, `{"text":"` + strings.Repeat("a", 4097) + `"}`} {
		w := do(t, r, http.MethodPost, "/api/messages", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, errx.InvalidInputMessage, resp.Error)
		assert.NotEmpty(t, resp.RequestID)
	}
}

func TestPostMessageRendersAppError(t *testing.T) {
	runner := &fakeRunner{invokeErr: errx.WrapNLU(errors.New("quota exceeded"))}
	r := NewRouter(runner, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader(`{"conversation_id":"c","text":"hi"}`))
	req.Header.Set(requestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, ErrorResponse{Error: errx.NLUErrorMessage, RequestID: "req-42"}, resp)
	assert.NotContains(t, w.Body.String(), "quota")
}

func TestPostMessageHidesPlainErrors(t *testing.T) {
	r := NewRouter(&fakeRunner{invokeErr: errors.New("boom")}, nil)
	w := do(t, r, http.MethodPost, "/api/messages", `{"conversation_id":"c","text":"hi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), errx.SystemErrorMessage)
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestTranscript(t *testing.T) {
	runner := &fakeRunner{history: &model.ConversationHistory{
		ConversationID: "c-1",
		Messages: []*schema.Message{
			schema.UserMessage("hi"),
			schema.AssistantMessage("Welcome", nil),
		},
	}}
	r := NewRouter(runner, nil)

	w := do(t, r, http.MethodGet, "/api/conversations/c-1/transcript", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp TranscriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, TranscriptResponse{
		ConversationID: "c-1",
		Messages: []TranscriptMessage{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "Welcome"},
		},
	}, resp)
}

func TestDeleteConversation(t *testing.T) {
	runner := &fakeRunner{}
	r := NewRouter(runner, nil)

	w := do(t, r, http.MethodDelete, "/api/conversations/c-9", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "c-9", runner.resetID)

	runner.resetErr = errx.WrapRedis(errors.New("connection refused"))
	w = do(t, r, http.MethodDelete, "/api/conversations/c-9", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealth(t *testing.T) {
	w := do(t, NewRouter(&fakeRunner{}, nil), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	down := func(context.Context) error { return errors.New("redis unreachable") }
	w = do(t, NewRouter(&fakeRunner{}, down), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNoRoute(t *testing.T) {
	w := do(t, NewRouter(&fakeRunner{}, nil), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMessagesAgainstTurnGraph(t *testing.T) {
	runner, err := graph.BuildTurnGraph(context.Background(), graph.Config{
		Recognizer:       recognizer.NewFallback(nil, recognizer.NewKeyword(0.5)),
		ConversationRepo: repo.NewMemoryConversationRepository(time.Hour),
		DialogStateRepo:  repo.NewMemoryDialogStateRepository(time.Hour),
	})
	require.NoError(t, err)
	r := NewRouter(runner, nil)

	w := do(t, r, http.MethodPost, "/api/messages", `{"conversation_id":"web-1","text":"hi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Activities, 2)
	assert.Equal(t, dialogs.WelcomeMessage, resp.Activities[1].Text)

	w = do(t, r, http.MethodPost, "/api/messages", `{"conversation_id":"web-1","text":"I have insurance"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.IntentInsurance, resp.Intent)
	require.Len(t, resp.Activities, 1)
	assert.Equal(t, []string{"AIG", "Geico", "Progressive", "Prudential"}, resp.Activities[0].SuggestedActions)

	w = do(t, r, http.MethodGet, "/api/conversations/web-1/transcript", "")
	require.Equal(t, http.StatusOK, w.Code)
	var transcript TranscriptResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transcript))
	assert.Len(t, transcript.Messages, 5)

	w = do(t, r, http.MethodDelete, "/api/conversations/web-1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, r, http.MethodGet, "/api/conversations/web-1/transcript", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &transcript))
	assert.Empty(t, transcript.Messages)
}
