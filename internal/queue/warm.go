package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/lineage/pkg/common"
	"github.com/OFFIS-RIT/lineage/pkg/graph"
	"github.com/OFFIS-RIT/lineage/pkg/logger"
)

const WarmQueue = "warm_queue"

// ErrInvalidMessage marks bodies that will never process successfully.
var ErrInvalidMessage = errors.New("invalid message")

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidMessage)
}

// WarmMessage asks the worker to build a graph ahead of time so the store
// holds every artist and edge the query touches.
type WarmMessage struct {
	CorrelationID string `json:"correlation_id"`
	Slug          string `json:"slug"`
	Depth         int    `json:"depth"`
}

type GraphBuilder interface {
	Build(ctx context.Context, root string, depth int) (*common.GraphResult, error)
}

func ProcessWarmMessage(ctx context.Context, builder GraphBuilder, msg string) error {
	data := new(WarmMessage)
	if err := json.Unmarshal([]byte(msg), data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	slug := strings.TrimSpace(data.Slug)
	if slug == "" {
		return fmt.Errorf("%w: missing slug", ErrInvalidMessage)
	}

	depth := graph.DefaultDepth
	if data.Depth != 0 {
		depth = graph.ClampDepth(data.Depth)
	}

	result, err := builder.Build(ctx, slug, depth)
	if err != nil {
		return fmt.Errorf("failed to warm %q: %w", slug, err)
	}

	logger.Info(
		"[Queue] Warmed graph",
		"correlation_id", data.CorrelationID,
		"slug", slug,
		"depth", depth,
		"nodes", len(result.Nodes),
		"links", len(result.Links),
		"truncated", result.Truncated,
	)
	return nil
}
