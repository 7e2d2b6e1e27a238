/*
Package tenanthub routes events between extensions inside one process,
with an independent hub per tenant.

# Overview

A Registry maps each Tenant to exactly one Hub. The Default tenant's hub
exists from the moment the registry is built; other hubs are created on
first use by CreateOrGet. Get never creates.

	reg := tenanthub.NewRegistry(tenanthub.WithLogger(logger))
	hub := reg.CreateOrGet(tenanthub.Named("tenant-a"))

# Registration

A hub starts in NotStarted. RegisterExtensions checks each candidate for
the TenantAware capability, registers the accepted ones concurrently and
starts the hub once every one has reported back:

	hub.RegisterExtensions([]tenanthub.ExtensionType{analytics, identity}, func() {
	    // hub is Running
	})

Rejected candidates produce one Error diagnostic on the configured
logging.Sink and do not count toward the barrier.

# Dispatch

Dispatch never blocks. A single drain goroutine per hub delivers events in
dispatch order while the hub is Running. Events dispatched before Start are
dropped by default; WithPreStartPolicy(QueueBeforeStart) holds them until
Start instead.

# Responses

RegisterResponseListener waits for a response to a trigger event:

	trigger := event.New("Privacy Status Request", event.TypeConfiguration, event.SourceRequestContent, nil)
	hub.RegisterResponseListener(trigger, time.Second, func(resp *event.Event) {
	    if resp == nil {
	        // timed out
	    }
	})
	_ = hub.Dispatch(ctx, trigger)

A response is any event built with event.NewResponse(trigger, ...). The
callback fires exactly once, with the first response or with nil at the
deadline. Responses are correlated whether or not the hub is running.

# Thread Safety

Registry and Hub methods are safe for concurrent use. Each hub has its own
lock; the registry lock is held only to look up or insert a hub.
*/
package tenanthub
