// Package service manages background services: manifests, running
// instances and their start/stop lifecycle.
//
// A service is registered from a Manifest and started explicitly. Its
// OnStart hook typically creates a Worker whose goroutines poll hardware
// until OnStop interrupts and joins them:
//
//	services.AddAndStart(service.Manifest{
//		ID: "sdcard",
//		OnStart: func(inst *service.Instance) error {
//			w := service.NewWorker("sdcard", logger)
//			w.Every("poll", 2*time.Second, poll)
//			inst.SetData(w)
//			return nil
//		},
//		OnStop: func(inst *service.Instance) {
//			inst.Data().(*service.Worker).Stop()
//		},
//	})
package service
