package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/aeg-helpline/server/internal/agent/dialogs"
	"github.com/aeg-helpline/server/internal/agent/graph/conversations"
	"github.com/aeg-helpline/server/internal/agent/graph/nodes"
	"github.com/aeg-helpline/server/internal/agent/graph/observers"
	"github.com/aeg-helpline/server/internal/agent/model"
	"github.com/aeg-helpline/server/internal/agent/recognizer"
	errx "github.com/aeg-helpline/server/internal/core/error"
	"github.com/aeg-helpline/server/internal/dialog"
	logx "github.com/aeg-helpline/server/pkg/logger"
)

const maxRunSteps = 20

// Config holds everything needed to compose the turn graph end-to-end.
type Config struct {
	Recognizer       recognizer.Recognizer
	Conversation     model.ConversationConfig
	ConversationRepo model.ConversationRepository
	DialogStateRepo  model.DialogStateRepository
	// Clock overrides the reference time of each turn, for tests.
	Clock func() time.Time
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	Host            *dialog.Host
	MessagesManager *conversations.MessagesManager
	DialogStates    model.DialogStateRepository
	Clock           func() time.Time
}

// GraphBuilder handles the construction of the turn graph
type GraphBuilder struct {
	deps  *nodes.TurnDeps
	graph *compose.Graph[model.TurnInput, model.TurnOutput]
}

// Runner executes turns of the help line. Turns of one conversation are
// serialized; different conversations run concurrently.
type Runner struct {
	runnable compose.Runnable[model.TurnInput, model.TurnOutput]
	mm       *conversations.MessagesManager
	states   model.DialogStateRepository
	locks    *keyedMutex
}

// BuildTurnGraph wires the dialogs around the recognizer, builds the graph and returns a Runner.
func BuildTurnGraph(ctx context.Context, cfg Config) (*Runner, error) {
	if cfg.ConversationRepo == nil {
		return nil, fmt.Errorf("conversation repo is nil")
	}
	if cfg.DialogStateRepo == nil {
		return nil, fmt.Errorf("dialog state repo is nil")
	}
	if cfg.Recognizer == nil {
		return nil, dialogs.ErrMissingRecognizer
	}

	mm := conversations.NewMessagesManager(cfg.ConversationRepo, cfg.Conversation)

	booking, err := dialogs.NewBookingDialog(dialogs.BookingDialogID)
	if err != nil {
		return nil, fmt.Errorf("build booking dialog: %w", err)
	}
	mainDialog, err := dialogs.NewMainDialog(nodes.NewContextualRecognizer(cfg.Recognizer, mm), booking)
	if err != nil {
		return nil, fmt.Errorf("build main dialog: %w", err)
	}
	host, err := dialog.NewHost(mainDialog)
	if err != nil {
		return nil, err
	}

	runnable, err := BuildGraph(ctx, &GraphConfig{
		Host:            host,
		MessagesManager: mm,
		DialogStates:    cfg.DialogStateRepo,
		Clock:           cfg.Clock,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Bool("nlu_configured", cfg.Recognizer.IsConfigured()).Msg("Turn graph built successfully")
	return &Runner{
		runnable: runnable,
		mm:       mm,
		states:   cfg.DialogStateRepo,
		locks:    newKeyedMutex(),
	}, nil
}

// BuildGraph constructs and returns the compiled turn graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.TurnInput, model.TurnOutput], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.Host == nil {
		return nil, fmt.Errorf("dialog host is nil")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.DialogStates == nil {
		return nil, fmt.Errorf("dialog state repo is nil")
	}

	builder := &GraphBuilder{
		deps: &nodes.TurnDeps{
			Host:            config.Host,
			MessagesManager: config.MessagesManager,
			DialogStates:    config.DialogStates,
			Clock:           config.Clock,
		},
		graph: compose.NewGraph[model.TurnInput, model.TurnOutput](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	if err := b.graph.AddLambdaNode(nodes.NodeInputConverter,
		nodes.NewInputConverterNode(b.deps),
		compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
		compose.WithStatePostHandler(nodes.NewInputConverterPostHandler()),
	); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeInputConverter, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeInterruption,
		nodes.NewInterruptionNode(b.deps),
		compose.WithStatePostHandler(nodes.NewDialogPostHandler()),
	); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeInterruption, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeDialogTurn,
		nodes.NewDialogTurnNode(b.deps),
		compose.WithStatePostHandler(nodes.NewDialogPostHandler()),
	); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeDialogTurn, err)
	}

	if err := b.graph.AddLambdaNode(nodes.NodeFinalizer,
		nodes.NewFinalizerNode(b.deps),
	); err != nil {
		return fmt.Errorf("add %s node: %w", nodes.NodeFinalizer, err)
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeInterruption, nodes.NodeFinalizer},
		{nodes.NodeDialogTurn, nodes.NodeFinalizer},
		{nodes.NodeFinalizer, compose.END},
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("add edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	interruptionBranch := compose.NewGraphBranch(
		nodes.NewInterruptionCondition(),
		map[string]bool{
			nodes.NodeInterruption: true,
			nodes.NodeDialogTurn:   true,
		},
	)
	if err := b.graph.AddBranch(nodes.NodeInputConverter, interruptionBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding interruption branch")
		return fmt.Errorf("error adding interruption branch: %w", err)
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.TurnInput, model.TurnOutput], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName("HelpLineTurn"),
		compose.WithMaxRunSteps(maxRunSteps),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

// Invoke runs one turn.
func (r *Runner) Invoke(ctx context.Context, in model.TurnInput) (model.TurnOutput, error) {
	if strings.TrimSpace(in.ConversationID) == "" {
		return model.TurnOutput{}, errx.InvalidInput(fmt.Errorf("conversation id is empty"))
	}

	unlock := r.locks.Lock(in.ConversationID)
	defer unlock()

	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewGraphCallbacks()))
	if err != nil {
		return model.TurnOutput{}, err
	}
	return out, nil
}

// Transcript returns the stored messages of a conversation.
func (r *Runner) Transcript(ctx context.Context, conversationID string) (*model.ConversationHistory, error) {
	return r.mm.Transcript(ctx, conversationID)
}

// Reset forgets the transcript and the dialog state of a conversation.
func (r *Runner) Reset(ctx context.Context, conversationID string) error {
	unlock := r.locks.Lock(conversationID)
	defer unlock()

	if err := r.mm.Clear(ctx, conversationID); err != nil {
		return err
	}
	return r.states.Delete(ctx, conversationID)
}
