// Package temporal runs reconciliation batches as Temporal workflows.
//
// One workflow execution covers one provider run. The workflow executes a
// single RunProviderBatch activity that walks every registered author and
// heartbeats its progress; a run is never retried automatically, re-runs
// are started from outside.
//
// # Client Setup
//
//	c, err := temporal.NewClient(temporal.ClientConfig{
//	    HostPort:  "localhost:7233",
//	    Namespace: "author-reconciliation",
//	    TaskQueue: "author-reconciliation-tasks",
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	rc := temporal.NewReconciliationClient(c, cfg)
//	defer rc.Close()
//
// # Starting Runs
//
//	workflowID, err := rc.StartRun(ctx, "dblp")
//	progress, err := rc.QueryProgress(ctx, workflowID)
//
// # Worker Setup
//
//	mgr, err := temporal.NewWorkerManager(c, temporal.DefaultWorkerConfig(taskQueue))
//	mgr.RegisterWorkflow(workflows.ReconciliationWorkflow)
//	mgr.RegisterActivity(acts)
//	err = mgr.Start(ctx)
//
// # Error Handling
//
// Client errors are *TemporalError values classified by sentinel:
//
//	if temporal.IsWorkflowNotFound(err) {
//	    // unknown workflow ID
//	}
package temporal
