// Package live serves one reconciled container over HTTP and WebSocket.
//
// Trees arrive as JSON or YAML documents on POST /render. The engine
// reconciles them through a protocol.Binding; the resulting op batch is
// replayed onto an in-memory mirror (GET /html) and broadcast to every
// WebSocket client on GET /ws as a Patches frame.
//
// A client that connects receives a snapshot batch rebuilding the current
// tree under its own root, followed by every later batch in order. Node and
// listener ids in the snapshot match the live stream, so a client keeps one
// protocol.Replayer for the whole connection.
//
// Clients send Event frames naming a listener id. Document handlers are
// declared as {on: {click: action}}; every action name maps to one listener
// for the life of the server, and Options.OnAction observes dispatched
// actions. Malformed frames and unknown listeners are answered with an Error
// frame.
//
// With Options.History set, every rendered document is appended to a
// history.Store, listed on GET /history, and Restore renders the newest one
// again after a restart.
//
//	s := live.New(live.OptionsFromConfig(cfg, logger))
//	err := s.ListenAndServe(ctx, cfg.Address())
package live
