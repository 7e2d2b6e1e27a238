// Package event defines the immutable Event routed through tenant hubs and
// the listener contract extensions use to receive them.
//
// # Events
//
// Every event carries a name, type, source and a string keyed payload.
// New generates a unique ID that also serves as the correlation key for
// request/response exchanges:
//
//	req := event.New("Privacy Status Request", event.TypeConfiguration,
//	    event.SourceRequestContent, map[string]any{"config.getData": true})
//
//	// The responder answers with a correlated event.
//	resp := event.NewResponse(req, "Configuration Response Content",
//	    event.TypeConfiguration, event.SourceResponseContent, payload)
//	// resp.ResponseID() == req.ID()
//
// # Listeners
//
// Listeners register for a (type, source) pair; Wildcard matches any value.
// Registration.Invoke recovers listener panics and reports them as
// *ListenerError.
package event
