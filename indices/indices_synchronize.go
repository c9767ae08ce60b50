package indices

import (
	"context"
	"fmt"
	"steward/bizerror"
	"steward/event"
	"steward/session"
	"steward/tasklog"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	TaskLogIndexEventHandlerName = "taskLogIndexer"
	indexRobot                   = &session.Session{
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Context:  context.Background(),
	}

	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun

	SyncBatchSize = 500

	// one batch per tick keeps a full resync from starving the regular
	// index traffic
	fullSyncLimiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)
)

func ScheduleNewSyncRun(sec *session.Session) (bool, error) {
	if !sec.Perms.HasSystemAdminRole() {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		IndicesFullSyncFunc()
	}()
	waitRunning.Wait()
	return true, nil
}

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	page := 1
	for {
		if err := fullSyncLimiter.Wait(context.Background()); err != nil {
			return err
		}

		records, err := tasklog.LoadTaskLogsFunc(page, SyncBatchSize)
		if err != nil {
			logrus.Warnf("indices fully sync: error on retrieve task logs(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
			page++
			continue
		}

		if len(records) == 0 {
			logrus.Infof("indices fully sync: there are no more task logs to index")
			return nil // loop exit
		}

		if err := IndexTaskLogs(records); err != nil {
			logrus.Warnf("indices fully sync: error on index task logs(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
		page++
	}
}

// TaskLogIndexEventHandle keeps the search index in step with task
// transitions: any task event re-indexes the task's full audit trail.
func TaskLogIndexEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTypeTask {
		return nil
	}

	records, err := tasklog.ListTaskLogsDirectlyFunc(e.Event.SourceId)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("list task logs when indexing task %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: TaskLogIndexEventHandlerName,
		}
	}
	if err := IndexTaskLogs(records); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index task logs of task %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: TaskLogIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: TaskLogIndexEventHandlerName}
}
