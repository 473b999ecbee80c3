// Package internal contains the implementation packages of formify.
//
// # Package Organization
//
//   - fields: the closed set of form fields and ordered field values
//   - alert: transient status messages with a replaceable expiry timer
//   - submit: the JSON submission transport and truthiness of responses
//   - widget: the controller that owns panel, field, alert and loading state
//   - components: templ components rendering the widget to HTML
//   - session: per-visitor widgets keyed by a cookie, with idle expiry
//   - websocket: the hub that pushes re-rendered fragments to browsers
//   - server: the chi host server, its middleware and rate limiting
//   - tui: the Bubble Tea rendition of the widget
//   - a11y: accessibility audit of rendered markup
//   - config: Viper configuration with validation and suggestions
//   - watcher: debounced fsnotify watching for config reload
//   - validation: email, URL, origin and path checks
//   - logging: the structured logger shared by every package
//   - errors: structured errors and CLI hints
//
// # Inter-Package Communication
//
// The widget controller is the single source of truth. The server, the
// terminal UI and the submit command all drive a widget and read it back
// through snapshots; observers registered with Subscribe are told about every
// state change, which is how alert expiry reaches a browser or a terminal
// without polling.
package internal
