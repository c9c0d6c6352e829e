package queue

import (
	"context"

	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/model"
)

// ActivityTopic is the topic committed activity records are published to.
var ActivityTopic = "knowledgehub.activity"

// ActivityQueue publishes committed audit records for downstream consumers.
// Publishing is best-effort; the document mutation never waits on it.
type ActivityQueue interface {
	PublishActivity(ctx context.Context, record *model.Activity) error
	Close()
}

type Noop struct {
}

func NewNoop() Noop {
	return Noop{}
}

func (n Noop) PublishActivity(ctx context.Context, record *model.Activity) error {
	return nil
}

func (n Noop) Close() {
}
