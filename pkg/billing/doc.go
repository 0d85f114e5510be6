// Package billing keeps a user's profile in sync with their Stripe subscription.
//
// Two paths write subscription state to a ProfileStore:
//
//   - WebhookProcessor verifies a signed notification with a Verifier, skips
//     event ids already recorded by an optional EventDeduper, and hands the
//     typed Event to the Dispatcher. The Dispatcher runs one reconciliation
//     routine per event kind and acknowledges kinds it does not act on.
//   - Service exposes the synchronous actions: changing plan, cancelling,
//     starting a hosted checkout and reading subscription status.
//
// Every writer replaces the whole SubscriptionState with either ActiveState or
// RevokedState, so redelivered and reordered events converge on the same row.
// A missing profile or an incomplete payload yields OutcomeSkipped with a nil
// error; only store failures (ErrStore) are reported so the provider retries.
//
// StripeProvider and StripeVerifier implement BillingProvider and Verifier on
// top of github.com/stripe/stripe-go/v82. MemoryStore is an in-process
// ProfileStore for tests and local runs.
package billing
