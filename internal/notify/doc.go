// Package notify delivers job lifecycle events to an optional webhook so
// chat bots or CI integrations can react to finished scans. With no webhook
// configured every call is a no-op.
package notify
