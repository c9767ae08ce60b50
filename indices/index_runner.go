package indices

import (
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartCron nightly full resync catches up anything the event-driven
// indexing missed.
func StartCron() {
	crontab := cron.New(cron.WithSeconds())
	crontab.AddFunc("0 0 23 * * ?", func() {
		if err := IndicesFullSyncFunc(); err != nil {
			logrus.Warnf("scheduled indices full sync failed: %v", err)
		}
	})
	crontab.Start()
}
