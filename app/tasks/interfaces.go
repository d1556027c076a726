package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to keep the aggregation cache warm.
// Example usage:
//
//	scheduler, err := NewScheduler(cache, "@every 4m", 1)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
