// Package redisdedupe remembers processed webhook event ids in Redis so that
// provider redeliveries are acknowledged without touching the profile store.
package redisdedupe
