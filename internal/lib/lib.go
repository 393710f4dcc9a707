// Package lib holds infrastructure that does not fit strictly into other
// layers: background jobs (asynq on Redis), the notification mail client
// (Resend) and small helpers.
package lib
