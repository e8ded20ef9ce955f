// Command pipetrigger-lambda is the function entry point. The event is
// {"Yaml": <payload>}; configuration comes from PIPETRIGGER_* environment
// variables and, optionally, the file named by PIPETRIGGER_CONFIG.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/margo/pipeline-trigger/trigger"
	"github.com/margo/pipeline-trigger/trigger/types"
	"go.uber.org/zap"
)

// runner is the part of *trigger.Trigger the handler needs.
type runner interface {
	Run(ctx context.Context, invocationID string, event *types.Event) (*trigger.Result, error)
}

type handler struct {
	trigger runner
	timeout time.Duration
	log     *zap.SugaredLogger
}

// Handle runs one invocation. The request id names the workspace; errors are
// returned unchanged so the platform marks the invocation failed. A non-zero
// timeout bounds the run in addition to the platform deadline.
func (h *handler) Handle(ctx context.Context, payload json.RawMessage) error {
	event, err := types.DecodeEvent(payload)
	if err != nil {
		return types.NewTriggerError(types.TriggerStepDecodeEvent, err)
	}

	var invocationID string
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		invocationID = lc.AwsRequestID
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.trigger.Run(ctx, invocationID, event)
	if err != nil {
		return err
	}
	h.log.Debugw("Invocation finished", "invocationId", result.InvocationID, "commit", result.Commit)
	return nil
}

func main() {
	bootLog := zap.NewExample().Sugar()

	cfg, err := types.NewConfigManager(os.Getenv(types.EnvPrefix + "_CONFIG")).LoadAndValidateConfig()
	if err != nil {
		bootLog.Fatalw("failed to load configuration", "error", err)
	}
	log, err := trigger.NewLogger(cfg.Log)
	if err != nil {
		bootLog.Fatalw("failed to create logger", "error", err)
	}
	defer log.Sync()

	trig, err := trigger.NewFromConfig(context.Background(), cfg, log)
	if err != nil {
		log.Fatalw("failed to create trigger", "error", err)
	}

	h := &handler{trigger: trig, timeout: cfg.Timeout, log: log}
	lambda.Start(h.Handle)
}
