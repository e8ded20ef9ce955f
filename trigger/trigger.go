// Package trigger commits a YAML payload into a fresh clone of the staging
// repository and pushes it to the branch a downstream pipeline polls.
//
// One Run is one invocation:
//
//  1. remove any stale workspace
//  2. clone the staging branch
//  3. register the target remote
//  4. write <payload>.yaml
//  5. stage all changes
//  6. commit as code-added-MMDDYYYYHHMMSS
//  7. push the staging branch to the target branch, never forced
//
// Each step that fails returns a *types.TriggerError naming the step. Nothing
// is retried and nothing is rolled back.
package trigger

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/margo/pipeline-trigger/shared-lib/git"
	"github.com/margo/pipeline-trigger/trigger/types"
	"go.uber.org/zap"
)

// commitTimeLayout renders MMDDYYYYHHMMSS.
const commitTimeLayout = "01022006150405"

// CommitMessage returns the commit message for an invocation processed at t.
func CommitMessage(t time.Time) string {
	return "code-added-" + t.Format(commitTimeLayout)
}

// Result describes a successful invocation.
type Result struct {
	InvocationID string `json:"invocationId"`
	Workspace    string `json:"workspace"`
	File         string `json:"file"`
	Commit       string `json:"commit"`
	Message      string `json:"message"`
	Remote       string `json:"remote"`
	Branch       string `json:"branch"`
}

// Trigger runs invocations against one staging/target repository pair.
type Trigger struct {
	staging   types.RepositoryConfig
	target    types.TargetConfig
	workspace types.WorkspaceConfig
	author    git.Signature
	auth      *git.Auth

	clock func() time.Time
	newID func() string
	log   *zap.SugaredLogger
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithClock overrides the wall clock used for commit messages and timestamps.
func WithClock(clock func() time.Time) Option {
	return func(t *Trigger) {
		t.clock = clock
	}
}

// WithInvocationIDs overrides how invocation ids are generated when the caller supplies none.
func WithInvocationIDs(newID func() string) Option {
	return func(t *Trigger) {
		t.newID = newID
	}
}

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(t *Trigger) {
		if log != nil {
			t.log = log
		}
	}
}

// New creates a Trigger. auth may be nil for repositories that need no
// credentials or embed them in their URLs.
func New(cfg *types.Config, auth *git.Auth, opts ...Option) (*Trigger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	t := &Trigger{
		staging:   cfg.Staging,
		target:    cfg.Target,
		workspace: cfg.Workspace,
		author: git.Signature{
			Name:  cfg.Commit.AuthorName,
			Email: cfg.Commit.AuthorEmail,
		},
		auth:  auth,
		clock: time.Now,
		newID: uuid.NewString,
		log:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Run performs one invocation. An empty invocationID gets a generated one.
//
// The workspace is <workspace root>/<invocationID>. It is removed when Run
// returns unless the configuration retains it.
func (t *Trigger) Run(ctx context.Context, invocationID string, event *types.Event) (*Result, error) {
	if err := event.Validate(); err != nil {
		return nil, types.NewTriggerError(types.TriggerStepDecodeEvent, err)
	}
	if invocationID == "" {
		invocationID = t.newID()
	}
	log := t.log.With("invocationId", invocationID)

	workspace, err := workspacePath(t.workspace.Root, invocationID)
	if err != nil {
		return nil, t.fail(log, types.TriggerStepResetWorkspace, err)
	}
	if err := resetWorkspace(workspace); err != nil {
		return nil, t.fail(log, types.TriggerStepResetWorkspace, err)
	}
	if !t.workspace.Retain {
		defer func() {
			if err := os.RemoveAll(workspace); err != nil {
				log.Warnw("failed to remove workspace", "workspace", workspace, "error", err)
			}
		}()
	}

	client, err := git.NewClient(t.auth, t.staging.URL, t.staging.Branch, workspace, git.WithLogger(log))
	if err != nil {
		return nil, t.fail(log, types.TriggerStepClone, err)
	}
	if err := client.Clone(ctx); err != nil {
		return nil, t.fail(log, types.TriggerStepClone, err)
	}

	if err := client.AddRemote(t.target.Remote, t.target.URL, t.auth); err != nil {
		return nil, t.fail(log, types.TriggerStepAddRemote, err)
	}

	fileName := types.PayloadFileName(event.Yaml)
	_, err = writePayloadFile(client.Path(), fileName, func(f *os.File) error {
		return types.EncodePayload(f, event.Yaml)
	})
	if err != nil {
		return nil, t.fail(log, types.TriggerStepWritePayload, err, "file", fileName)
	}

	if err := client.StageAll(); err != nil {
		return nil, t.fail(log, types.TriggerStepStage, err)
	}

	now := t.clock()
	message := CommitMessage(now)
	hash, err := client.Commit(message, t.author, now)
	if err != nil {
		return nil, t.fail(log, types.TriggerStepCommit, err, "message", message)
	}

	if err := client.Push(ctx, t.target.Remote, t.staging.Branch, t.target.Branch); err != nil {
		return nil, t.fail(log, types.TriggerStepPush, err, "remote", t.target.Remote, "branch", t.target.Branch, "commit", hash)
	}

	result := &Result{
		InvocationID: invocationID,
		Workspace:    workspace,
		File:         fileName,
		Commit:       hash,
		Message:      message,
		Remote:       t.target.Remote,
		Branch:       t.target.Branch,
	}
	log.Infow("Pipeline triggered",
		"file", result.File,
		"commit", result.Commit,
		"message", result.Message,
		"remote", result.Remote,
		"branch", result.Branch,
	)
	return result, nil
}

// fail wraps err for step, attaches the key/value pairs as context and logs it.
func (t *Trigger) fail(log *zap.SugaredLogger, step types.TriggerStep, err error, keysAndValues ...interface{}) error {
	triggerErr := types.NewTriggerError(step, err)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		triggerErr.WithContext(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1])
	}
	log.Errorw("Invocation failed", append([]interface{}{"step", step, "error", err}, keysAndValues...)...)
	return triggerErr
}
