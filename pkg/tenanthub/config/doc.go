/*
Package config loads hub settings and configuration payloads from YAML or
JSON.

# Values

Values wraps a map[string]any and provides typed accessors that return a
default when a key is missing or has the wrong type:

	v, err := config.FromFile("settings.yaml")
	timeout := v.Duration("api_timeout", time.Second)

Duration accepts "1s" style strings or a number of seconds.

# Settings

Settings gathers the knobs shared by every hub in a registry:

	log_level: warning          # trace | debug | warning | error
	api_timeout: 2s
	pre_start_policy: queue     # drop | queue
	pre_start_queue_limit: 50
	metrics: true
	tracing: false
	history_path: events.db     # enables SQLite history

Load a file and turn it into hub options:

	s, err := config.Load("settings.yaml")
	opts, store, err := s.HubOptions(logger)
	reg := tenanthub.NewRegistry(opts...)
*/
package config
