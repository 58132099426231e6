// Package shm maps named shared memory regions owned by another process.
//
// A Region bundles the OS mapping object with the process-local view of it and releases
// both together. The view returned by Bytes is only valid until Close.
//
// Example usage:
//
//	region, err := shm.Open(ctx, shm.OpenOptions{
//	  Name: "MumbleLink",
//	  Size: 5292,
//	})
//	if err != nil {
//	  // ...
//	}
//	defer region.Close()
//
// Opening is instrumented with OpenTelemetry metrics and tracing when a Meter or Tracer is
// supplied. Platform-specific helpers are in internal/shm.
package shm
