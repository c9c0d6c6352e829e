package jobs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/activity"
	"github.com/vigneshgithub-coder/Knowledge-Hub-server/internal/store"
)

// ActivityReconcileTask replays lost audit writes. Activity records are
// best-effort relative to the document commit, so a committed version can be
// missing from the trail; this task catches the trail up periodically.
type ActivityReconcileTask struct {
	store    store.Store
	recorder *activity.Recorder
	cron     string
}

func NewActivityReconcileTask(schedule string, s store.Store, recorder *activity.Recorder) *ActivityReconcileTask {
	return &ActivityReconcileTask{
		store:    s,
		recorder: recorder,
		cron:     schedule,
	}
}

func (a *ActivityReconcileTask) Schedule() string {
	return a.cron
}

func (a *ActivityReconcileTask) Run() {
	since := time.Now().Add(-activity.ReplayWindow)
	if err := a.recorder.Reconcile(context.Background(), a.store, since); err != nil {
		logrus.Errorf("activity reconciliation failed: %v", err)
	}
}
